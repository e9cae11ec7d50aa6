package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/urfave/cli.v1"

	ariadne "github.com/RobustRoundRobin/go-ariadne"
)

var (
	epochFlag          = cli.Uint64Flag{Name: "epoch", Usage: "mainchain epoch"}
	sidechainEpochFlag = cli.Uint64Flag{Name: "sidechain-epoch", Usage: "sidechain epoch the committee operates in"}
	poolFlag           = cli.StringFlag{Name: "pool", Usage: "hex stake pool (ed25519) public key"}
)

var parametersCommand = cli.Command{
	Name:   "parameters",
	Usage:  "Show the D parameter and permissioned candidates for a mainchain epoch",
	Action: withEnv(parameters),
	Flags:  []cli.Flag{epochFlag},
}

var registrationsCommand = cli.Command{
	Name:   "registrations",
	Usage:  "Explain how each registration made by a stake pool was judged",
	Action: withEnv(registrations),
	Flags:  []cli.Flag{epochFlag, poolFlag},
}

var committeeCommand = cli.Command{
	Name:  "committee",
	Usage: "Select the committee for a sidechain epoch",
	Description: "The mainchain epoch is derived from the configured epoch timing " +
		"unless --epoch is given.",
	Action: withEnv(committee),
	Flags:  []cli.Flag{sidechainEpochFlag, epochFlag},
}

func withEnv(action func(*cli.Context, *env) error) func(*cli.Context) error {
	return func(ctx *cli.Context) error {
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.close()
		return action(ctx, e)
	}
}

func parameters(ctx *cli.Context, e *env) error {
	r, err := e.selector.Parameters(context.Background(), ctx.Uint64(epochFlag.Name))
	if err != nil {
		return err
	}
	writeParameters(ctx.App.Writer, r)
	return nil
}

func writeParameters(out io.Writer, r *ariadne.ParametersReport) {
	fmt.Fprintf(out, "permissioned seats: %d\nregistered seats: %d\n",
		r.DParameter.NumPermissionedSeats, r.DParameter.NumRegisteredSeats)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "#\tAUTHORITY\tAURA\tGRANDPA\tSTATUS")
	for i, p := range r.Permissioned {
		status := "valid"
		if p.Err != nil {
			status = p.Err.Error()
		}
		fmt.Fprintf(w, "%d\t%x\t%x\t%x\t%s\n", i, p.Raw.AuthorityKey, p.Raw.AuraKey, p.Raw.GrandpaKey, status)
	}
}

func registrations(ctx *cli.Context, e *env) error {
	var pool ariadne.StakePoolKey
	if err := pool.UnmarshalText([]byte(ctx.String(poolFlag.Name))); err != nil {
		return fmt.Errorf("--pool: %w", err)
	}
	cs, ok, err := e.selector.RegistrationStatuses(context.Background(), ctx.Uint64(epochFlag.Name), pool)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no registrations for pool %s", pool.Hex())
	}
	writeStatuses(ctx.App.Writer, cs)
	return nil
}

func writeStatuses(out io.Writer, cs ariadne.CandidateStatus) {
	fmt.Fprintf(out, "pool: %s\npool id: %s\n", cs.StakePoolKey.Hex(), cs.StakePoolKey.PoolID().Hex())
	switch {
	case cs.Stake == nil:
		fmt.Fprintln(out, "stake: unknown")
	default:
		fmt.Fprintf(out, "stake: %d\n", *cs.Stake)
	}
	if cs.StakeErr != nil {
		fmt.Fprintf(out, "stake error: %v\n", cs.StakeErr)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "UTXO\tBLOCK\tTX\tAUTHORITY\tSTATUS")
	for _, s := range cs.Registrations {
		status := "valid"
		switch {
		case s.Err != nil:
			status = s.Err.Error()
		case s.Active:
			status = "active"
		case s.Superseded:
			status = "superseded"
		}
		r := s.Registration
		fmt.Fprintf(w, "%s\t%d\t%d\t%x\t%s\n",
			r.UtxoInfo.UtxoID, r.UtxoInfo.BlockNumber, r.UtxoInfo.TxIndexWithinBlock, r.AuthorityKey, status)
	}
}

func committee(ctx *cli.Context, e *env) error {
	bg := context.Background()
	sidechainEpoch := ctx.Uint64(sidechainEpochFlag.Name)

	var members []ariadne.CommitteeMember
	var err error
	if ctx.IsSet(epochFlag.Name) {
		members, err = e.selector.CommitteeFor(bg, sidechainEpoch, ctx.Uint64(epochFlag.Name))
	} else {
		members, err = e.selector.Committee(bg, sidechainEpoch)
	}
	if err != nil {
		return err
	}
	writeCommittee(ctx.App.Writer, members)
	return nil
}

func writeCommittee(out io.Writer, members []ariadne.CommitteeMember) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "SEAT\tKIND\tAUTHORITY\tKEYS\tPOOL")
	for i, m := range members {
		pool := "-"
		if m.Kind == ariadne.MemberRegistered {
			pool = m.StakePoolKey.Hex()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i, m.Kind, m.AuthorityKey.Hex(), m.Keys, pool)
	}
}
