// Command kingcoind runs one kingcoin node: it loads or creates the
// operator's wallet, brings up a transport (simulated or libp2p), and drives
// the single dispatch loop described in the consensus package's Engine.
package main

import (
	"context"
	"log"
	"os"

	urfavecli "github.com/urfave/cli/v2"

	clipkg "github.com/michloj571/kingcoin/internal/cli"
	kingcoinconfig "github.com/michloj571/kingcoin/internal/config"
	"github.com/michloj571/kingcoin/internal/consensus"
	"github.com/michloj571/kingcoin/internal/ledger"
	"github.com/michloj571/kingcoin/internal/node"
	"github.com/michloj571/kingcoin/internal/transport"
	"github.com/michloj571/kingcoin/internal/txn"
	"github.com/michloj571/kingcoin/internal/wallet"
)

// genesisEndowment is minted directly to the bootstrapping node's own
// wallet in the genesis block, so a brand new network has funds to forward
// through ordinary transfers and bootstrap-allowance grants before any
// block has been forged.
const genesisEndowment int64 = 100_000

func main() {
	app := &urfavecli.App{
		Name:   "kingcoind",
		Usage:  "run a kingcoin consensus node",
		Flags:  kingcoinconfig.Flags(),
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("kingcoind: %v", err)
	}
}

func run(c *urfavecli.Context) error {
	cfg := kingcoinconfig.FromContext(c)

	hotWallet, err := wallet.LoadOrCreate(cfg.WalletPath)
	if err != nil {
		return err
	}
	log.Printf("MAIN: node wallet %s", hotWallet.Address.Hex())

	genesisGrant := txn.New(ledger.MintAddress, hotWallet.Address, "genesis", genesisEndowment)
	transactions := txn.NewTransactionChain([]txn.Transaction{genesisGrant}, cfg.TransactionsPerBlock)
	stakes := txn.NewStakesChain()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var t transport.Transport
	if cfg.Simulated {
		t = transport.NewSimulatedHub().Join()
		log.Println("MAIN: using simulated transport")
	} else {
		t, err = transport.NewLibp2pTransport(ctx, cfg.ListenAddress, cfg.BootstrapPeer)
		if err != nil {
			return err
		}
		log.Println("MAIN: using libp2p transport")
	}
	defer t.Close()

	log.Printf("MAIN: this node id: %s", t.LocalID())

	state := node.New(t.LocalID(), hotWallet)
	engine := consensus.NewEngine(t, state, transactions, stakes, cfg.TransactionsPerBlock)

	repl := clipkg.New(engine, os.Stdout)
	stdinLines := clipkg.Lines(os.Stdin)

	for {
		select {
		case line, ok := <-stdinLines:
			if !ok {
				log.Println("MAIN: stdin closed, shutting down")
				return nil
			}
			if !repl.Handle(line) {
				log.Println("MAIN: operator requested exit")
				return nil
			}
		case event, ok := <-t.Events():
			if !ok {
				log.Println("MAIN: transport closed, shutting down")
				return nil
			}
			engine.HandleTransportEvent(event)
		}
	}
}
