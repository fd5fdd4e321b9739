// Package config parses node startup flags with urfave/cli.
package config

import (
	"github.com/urfave/cli/v2"
)

// Config holds the resolved startup parameters for a node.
type Config struct {
	WalletPath           string
	TransactionsPerBlock uint64
	Simulated            bool
	ListenAddress        string
	BootstrapPeer        string
}

// Flags returns the urfave/cli flag set describing Config, for embedding in
// an *cli.App.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "wallet",
			Value: "wallet",
			Usage: "path to the node operator's wallet file",
		},
		&cli.Uint64Flag{
			Name:  "transactions-per-block",
			Value: 1,
			Usage: "ordinary transactions required to fill a block",
		},
		&cli.BoolFlag{
			Name:  "simulated",
			Value: false,
			Usage: "use the in-process simulated transport instead of libp2p",
		},
		&cli.StringFlag{
			Name:  "listen",
			Value: "/ip4/0.0.0.0/tcp/0",
			Usage: "libp2p listen multiaddr (ignored when --simulated)",
		},
		&cli.StringFlag{
			Name:  "bootstrap",
			Value: "",
			Usage: "multiaddr of a peer to dial at startup (ignored when --simulated)",
		},
	}
}

// FromContext reads a Config out of a populated cli.Context.
func FromContext(c *cli.Context) Config {
	return Config{
		WalletPath:           c.String("wallet"),
		TransactionsPerBlock: c.Uint64("transactions-per-block"),
		Simulated:            c.Bool("simulated"),
		ListenAddress:        c.String("listen"),
		BootstrapPeer:        c.String("bootstrap"),
	}
}
