// Command upsctl drives a single User Proving Session end to end against
// an in-memory mock network and prover: open a session, execute one CFC
// call, finalize an end cap, and submit it. It exists to exercise the
// engine from the command line the way eth2030's own cmd/eth2030 exercises
// a full node, not to be a production submitter.
//
// Usage:
//
//	upsctl [flags]
//
// Flags:
//
//	--config         Path to a config file (optional)
//	--user           User id to open a session for (default: "demo-user")
//	--contract       Contract id the CFC call targets (default: "token")
//	--function       Function name to call (default: "transfer")
//	--args           JSON-encoded function arguments
//	--daily-limit    SDKey daily spend limit applied at finalize (0 = unset)
//	--version        Print version and exit
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sdprotocol/ups-engine/cft"
	"github.com/sdprotocol/ups-engine/config"
	"github.com/sdprotocol/ups-engine/host"
	"github.com/sdprotocol/ups-engine/log"
	"github.com/sdprotocol/ups-engine/provers"
	"github.com/sdprotocol/ups-engine/types"
)

var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, exit, code := parseFlags(args)
	if exit {
		return code
	}

	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		data, err := os.ReadFile(opts.configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: reading config: %v\n", err)
			return 1
		}
		loaded, err := config.Load(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: parsing config: %v\n", err)
			return 1
		}
		cfg = *loaded
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	logger := log.Default().Module("upsctl")
	logger.Info("upsctl starting", "version", version, "commit", commit)
	logger.Info("resolved configuration",
		"networkEndpoint", cfg.Network.Endpoint,
		"proverBackend", cfg.Prover.Backend,
		"dailyLimit", opts.dailyLimit,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received interrupt, cancelling run")
		cancel()
	}()

	if err := driveSession(ctx, cfg, opts); err != nil {
		logger.Error("run failed", "error", err)
		return 1
	}

	logger.Info("run complete")
	return 0
}

// driveSession wires a Host to an in-memory mock network pre-seeded with
// opts.contract's CFT and opts.user's balance, then runs one full session
// lifecycle against it.
func driveSession(ctx context.Context, cfg config.Config, opts cliOptions) error {
	fingerprint := types.CfcFingerprint(opts.contract + ":" + opts.function)
	root := cft.Build([]types.CfcFingerprint{fingerprint})
	proof, err := cft.GenerateProof([]types.CfcFingerprint{fingerprint}, 0)
	if err != nil {
		return fmt.Errorf("building cft proof: %w", err)
	}
	proof.CftRoot = root

	net := provers.NewMockNetworkState(types.CheckpointRef{BlockNumber: 1})
	net.SetUserLeaf(types.UserId(opts.user), types.UserLeafCtx{Balance: 1_000_000, Nonce: 0})
	net.SetContractRoot(types.ContractId(opts.contract), root)

	h := host.New(net)

	opened, err := h.OpenSession(ctx, opts.user)
	if err != nil {
		return fmt.Errorf("opening session: %w", err)
	}
	fmt.Printf("opened session %s\n", opened.SessionId)

	path := make([]string, len(proof.MerklePath))
	for i, sibling := range proof.MerklePath {
		path[i] = sibling.Hex()
	}

	execResult, err := h.ExecCfc(ctx, opened.Handle, host.ExecCfcRequest{
		ContractId:    opts.contract,
		FunctionName:  opts.function,
		ArgsJSON:      opts.argsJSON,
		Fingerprint:   string(fingerprint),
		CftMerklePath: path,
		CftRootHex:    types.Hash(proof.CftRoot).Hex(),
	})
	if err != nil {
		return fmt.Errorf("executing cfc: %w", err)
	}
	fmt.Printf("executed %s.%s: success=%v gasUsed=%d\n", opts.contract, opts.function, execResult.Success, execResult.GasUsed)

	var policy types.SdkeyPolicy
	if opts.dailyLimit > 0 {
		policy.DailyLimit = &opts.dailyLimit
	}

	submitter := &provers.MockSubmitter{}
	submitResult, err := h.SubmitEndCap(ctx, opened.Handle, policy, "", submitter)
	if err != nil {
		return fmt.Errorf("submitting end cap: %w", err)
	}
	fmt.Printf("submitted end cap, receipt %s\n", submitResult.ReceiptId)

	return nil
}

type cliOptions struct {
	configPath  string
	user        string
	contract    string
	function    string
	argsJSON    string
	dailyLimit  uint64
}

func parseFlags(args []string) (cliOptions, bool, int) {
	var opts cliOptions
	fs := newCustomFlagSet("upsctl")

	fs.StringVar(&opts.configPath, "config", "", "path to a config file")
	fs.StringVar(&opts.user, "user", "demo-user", "user id to open a session for")
	fs.StringVar(&opts.contract, "contract", "token", "contract id the cfc call targets")
	fs.StringVar(&opts.function, "function", "transfer", "function name to call")
	fs.StringVar(&opts.argsJSON, "args", `{"to":"bob","amount":100}`, "JSON-encoded function arguments")
	fs.Uint64Var(&opts.dailyLimit, "daily-limit", 0, "sdkey daily spend limit applied at finalize (0 = unset)")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return opts, true, 2
	}
	if *showVersion {
		fmt.Printf("upsctl %s (commit %s)\n", version, commit)
		return opts, true, 0
	}
	return opts, false, 0
}
