// Package cli implements the operator's interactive command loop: exit,
// list, balance, send, read from stdin and dispatched one line at a time.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/michloj571/kingcoin/internal/consensus"
	"github.com/michloj571/kingcoin/internal/ledger"
)

// REPL reads operator command lines and applies them against an engine.
type REPL struct {
	engine *consensus.Engine
	out    io.Writer
}

func New(engine *consensus.Engine, out io.Writer) *REPL {
	return &REPL{engine: engine, out: out}
}

// Lines starts a goroutine scanning stdin and returns the channel of raw
// command lines it produces, closed when stdin is exhausted. Decoupling the
// blocking read from the dispatch loop lets the caller select between this
// channel and transport events on a single goroutine.
func Lines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

// Handle dispatches one operator command line. It returns false when the
// operator asked to exit.
func (r *REPL) Handle(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	switch fields[0] {
	case "exit":
		return false
	case "list":
		r.list()
	case "balance":
		r.balance()
	case "send":
		r.send(fields[1:])
	default:
		fmt.Fprintf(r.out, "unrecognized command %q\n", fields[0])
	}
	return true
}

func (r *REPL) balance() {
	balance := r.engine.Balance()
	color.New(color.FgGreen).Fprintf(r.out, "Balance: %dKGC\n", balance)
}

func (r *REPL) list() {
	transactions := r.engine.LocalTransactions()
	table := tablewriter.NewWriter(r.out)
	table.SetHeader([]string{"Source", "Target", "Title", "Amount"})
	for _, t := range transactions {
		table.Append([]string{t.Source.Hex(), t.Target.Hex(), t.Title, strconv.FormatInt(t.Amount, 10)})
	}
	table.Render()
}

// send parses "send <amount> <target-hex>" and submits the transfer.
func (r *REPL) send(args []string) {
	if len(args) != 2 {
		color.New(color.FgRed).Fprintln(r.out, "usage: send <amount> <target-address-hex>")
		return
	}
	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		color.New(color.FgRed).Fprintf(r.out, "invalid amount: %v\n", err)
		return
	}
	target, err := ledger.AddressFromHex(args[1])
	if err != nil {
		color.New(color.FgRed).Fprintf(r.out, "invalid address: %v\n", err)
		return
	}
	if err := r.engine.SubmitTransfer(target, amount); err != nil {
		color.New(color.FgRed).Fprintln(r.out, err.Error())
	}
}
