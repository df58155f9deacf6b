// Copyright 2025 R5 Labs
// This file is part of the R5 Core library.
//
// This software is provided "as is", without warranty of any kind,
// express or implied, including but not limited to the warranties
// of merchantability, fitness for a particular purpose and
// noninfringement. In no event shall the authors or copyright
// holders be liable for any claim, damages, or other liability,
// whether in an action of contract, tort or otherwise, arising
// from, out of or in connection with the software or the use or
// other dealings in the software.

// Command ledgerd runs the ledger engine against a leveldb-backed
// store and exposes a Prometheus metrics endpoint.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/r5-labs/flexledger/bandit"
	"github.com/r5-labs/flexledger/block"
	"github.com/r5-labs/flexledger/bmt"
	"github.com/r5-labs/flexledger/config"
	"github.com/r5-labs/flexledger/digest"
	"github.com/r5-labs/flexledger/engine"
	"github.com/r5-labs/flexledger/log"
	"github.com/r5-labs/flexledger/metrics"
	"github.com/r5-labs/flexledger/storage"
	"github.com/r5-labs/flexledger/storage/leveldb"
)

var (
	dataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Directory holding the leveldb store",
		Value: "./ledgerdata",
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to a TOML config file (defaults used if omitted)",
	}
	metricsAddrFlag = &cli.StringFlag{
		Name:  "metrics.addr",
		Usage: "Address to serve Prometheus metrics on",
		Value: "127.0.0.1:6061",
	}
	blockIDFlag = &cli.Uint64Flag{
		Name:     "block",
		Usage:    "Block id to verify",
		Required: true,
	}
)

var serveCommand = &cli.Command{
	Action: serve,
	Name:   "serve",
	Usage:  "Run the ledger engine and serve metrics",
	Flags:  []cli.Flag{dataDirFlag, configFlag, metricsAddrFlag},
}

var verifyCommand = &cli.Command{
	Action: verify,
	Name:   "verify",
	Usage:  "Print the BMT proof path for one block's header against the stored BMT root",
	ArgsUsage: "<address>",
	Description: `
The verify command builds a membership or non-membership proof for the
given address within the given block and prints its authentication
path, tagging each step Leaf or Node.
`,
	Flags: []cli.Flag{dataDirFlag, blockIDFlag},
}

func loadEngine(c *cli.Context) (*engine.Engine, error) {
	db, err := leveldb.New(c.String(dataDirFlag.Name))
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	if path := c.String(configFlag.Name); path != "" {
		cfg, err = config.LoadFile(path)
		if err != nil {
			return nil, err
		}
	}

	st := storage.New(db)
	if _, perr := st.GetParameter(); perr != nil {
		if serr := st.SetParameter(storage.Parameter{
			ErrorBounds:          cfg.Ledger.ErrorBounds,
			EnableInterIndex:     cfg.Ledger.EnableInterIndex,
			EnableIntraIndex:     cfg.Ledger.EnableIntraIndex,
			StartBlockID:         cfg.Ledger.StartBlockID,
			BlockCount:           cfg.Ledger.BlockCount,
			InterIndexTimestamps: cfg.Ledger.InterIndexTimestamps,
		}); serr != nil {
			return nil, serr
		}
	}

	b := bandit.New(nil, cfg.Bandit.Temperature, cfg.Bandit.BudgetBytes)
	return engine.New(st, digest.Blake3_256, engine.NewStructuralVerifier(0), b, cfg.Query.Threshold), nil
}

func serve(c *cli.Context) error {
	e, err := loadEngine(c)
	if err != nil {
		return err
	}
	defer e.DB.Close()

	addr := c.String(metricsAddrFlag.Name)
	log.Info("ledgerd: serving metrics", "addr", addr)
	http.Handle("/metrics", metrics.Handler(e.Counters))
	return http.ListenAndServe(addr, nil)
}

func verify(c *cli.Context) error {
	e, err := loadEngine(c)
	if err != nil {
		return err
	}
	defer e.DB.Close()

	id := c.Uint64(blockIDFlag.Name)
	addr := c.Args().First()
	if addr == "" {
		return fmt.Errorf("ledgerd verify: an address argument is required")
	}

	header, err := e.DB.ReadBlockHeader(id)
	if err != nil {
		return err
	}
	data, err := e.DB.ReadBlockData(id)
	if err != nil {
		return err
	}

	leaves := make([][]byte, len(data.Txs))
	var target block.Transaction
	found := false
	for i, tx := range data.Txs {
		leaves[i] = tx.Bytes()
		if tx.Value.Address == addr {
			target = tx
			found = true
		}
	}
	if !found {
		target = block.Transaction{Value: block.TransactionValue{Address: addr}}
		fmt.Printf("address %q not present in block %d's data; proving non-membership\n", addr, id)
	}

	tree := bmt.Build(e.Algo, leaves)
	proof, err := tree.GenProof(target.Bytes())
	if err != nil {
		return err
	}

	ok, err := proof.Validate(e.Algo, header.BMTRoot)
	if err != nil {
		return err
	}

	verdict := color.New(color.FgRed).Sprint("invalid")
	if ok {
		verdict = color.New(color.FgGreen).Sprint("valid")
	}
	fmt.Printf("block %d header BMT root: %s\n", id, header.BMTRoot)
	fmt.Printf("proof %s, terminal kind: %v, leaf match: %v, path length: %d\n",
		verdict, proof.Terminal.Positioned(), proof.Terminal.IsLeafMatch, len(proof.Path))
	for i, step := range proof.Path {
		side := "left"
		if step.Side == bmt.SideRight {
			side = "right"
		}
		kind := "node"
		if step.SiblingIsLeaf {
			kind = "leaf"
		}
		fmt.Printf("  step %d: sibling on the %s, %s\n", i, side, kind)
	}
	return nil
}

func main() {
	usecolor := isatty.IsTerminal(os.Stderr.Fd())
	output := io.Writer(os.Stderr)
	if usecolor {
		output = colorable.NewColorableStderr()
	}
	log.SetDefault(log.LvlFilterHandler(log.LvlInfo, log.StreamHandler(output, log.TerminalFormat(usecolor))))

	app := &cli.App{
		Name:     "ledgerd",
		Usage:    "verifiable, append-only transactional ledger with query acceleration",
		Commands: []*cli.Command{serveCommand, verifyCommand},
	}
	if err := app.Run(os.Args); err != nil {
		log.Crit("ledgerd: fatal error", "err", err)
	}
}
