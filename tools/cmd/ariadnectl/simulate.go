package main

import (
	"crypto/rand"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	ariadne "github.com/RobustRoundRobin/go-ariadne"
	"github.com/RobustRoundRobin/go-ariadne/selection"
)

var simulateCommand = cli.Command{
	Name:  "simulate",
	Usage: "Repeatedly select committees from random seeds and write statistics as CSV",
	Description: "The candidates file is YAML with a `permissioned' list of ids and a " +
		"`registered' list of {id, stake}. Each repetition is one CSV row.",
	Action: simulateAction,
	Flags: []cli.Flag{
		cli.StringFlag{Name: "candidates", Usage: "YAML candidates file"},
		cli.UintFlag{Name: "permissioned-seats, P", Usage: "number of permissioned seats"},
		cli.UintFlag{Name: "registered-seats, R", Usage: "number of registered seats"},
		cli.IntFlag{Name: "repetitions", Value: 1, Usage: "number of committees to select"},
		cli.IntFlag{Name: "pool-size", Usage: "sample this many registered candidates each repetition, 0 uses them all"},
		cli.StringFlag{Name: "algorithm", Value: selection.AlgorithmV2.String(), Usage: "v1 or v2"},
		cli.StringFlag{Name: "out", Usage: "output file, defaults to stdout"},
	},
}

type simCandidate struct {
	ID    string `yaml:"id"`
	Stake uint64 `yaml:"stake"`
}

type simCandidates struct {
	Permissioned []string       `yaml:"permissioned"`
	Registered   []simCandidate `yaml:"registered"`
}

type simOptions struct {
	Algorithm          selection.Algorithm
	PermissionedSeats  uint16
	RegisteredSeats    uint16
	Repetitions        int
	RegisteredPoolSize int
}

// simStats describes one committee. A safe offline set is a set of members
// whose seats together stay within (seats - 1) / 3.
type simStats struct {
	TotalRegisteredStake   uint64
	TotalCommitteeStake    uint64
	DistinctMembers        int
	MaxSingleMemberSeats   int
	SafeOfflineMembers     int
	TopSafeOfflineStake    uint64
	BottomSafeOfflineStake uint64
}

var simHeader = []string{
	"ariadne_version", "R", "P", "registered_candidates", "total_registered_stake",
	"total_committee_stake", "distinct_members", "max_single_member_seats",
	"safe_offline_members", "top_safe_offline_stake", "bottom_safe_offline_stake",
}

func simulateAction(ctx *cli.Context) error {
	logger := newLogger(ctx)

	algorithm, err := selection.ParseAlgorithm(ctx.String("algorithm"))
	if err != nil {
		return err
	}
	opts := simOptions{
		Algorithm:          algorithm,
		PermissionedSeats:  uint16(ctx.Uint("permissioned-seats")),
		RegisteredSeats:    uint16(ctx.Uint("registered-seats")),
		Repetitions:        ctx.Int("repetitions"),
		RegisteredPoolSize: ctx.Int("pool-size"),
	}

	cands := &simCandidates{}
	if path := ctx.String("candidates"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(b, cands); err != nil {
			return fmt.Errorf("candidates `%s': %w", path, err)
		}
	}
	logger.Info("simulating", "permissioned", len(cands.Permissioned), "registered", len(cands.Registered),
		"repetitions", opts.Repetitions)

	out := ctx.App.Writer
	if path := ctx.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	start := time.Now()
	if err := simulate(out, opts, cands, rand.Reader, logger); err != nil {
		return err
	}
	logger.Info("simulation complete", "elapsed", time.Since(start))
	return nil
}

// simulate runs opts.Repetitions selections, each from a fresh seed read from
// rnd.
func simulate(out io.Writer, opts simOptions, cands *simCandidates, rnd io.Reader, logger ariadne.Logger) error {

	w := csv.NewWriter(out)
	if err := w.Write(simHeader); err != nil {
		return err
	}

	policy := selection.Policy{Algorithm: opts.Algorithm}
	less := func(a, b string) bool { return a < b }

	for i := 0; i < opts.Repetitions; i++ {
		if i > 0 && i%100 == 0 {
			logger.Info("simulation progress", "done", i, "repetitions", opts.Repetitions)
		}

		var seed [32]byte
		if _, err := io.ReadFull(rnd, seed[:]); err != nil {
			return err
		}

		registered := sampleRegistered(cands.Registered, opts.RegisteredPoolSize, seed)
		weighted := make([]selection.Weighted[string], len(registered))
		for j, c := range registered {
			weighted[j] = selection.Weighted[string]{Candidate: c.ID, Weight: selection.NewWeight(c.Stake)}
		}

		committee, err := selection.Select(
			policy, opts.PermissionedSeats, opts.RegisteredSeats, weighted, cands.Permissioned, seed, less)
		if err != nil {
			return fmt.Errorf("repetition %d: %w", i, err)
		}

		s := committeeStats(committee, registered, int(opts.PermissionedSeats)+int(opts.RegisteredSeats))
		row := []string{
			opts.Algorithm.String(),
			strconv.Itoa(int(opts.RegisteredSeats)),
			strconv.Itoa(int(opts.PermissionedSeats)),
			strconv.Itoa(len(registered)),
			strconv.FormatUint(s.TotalRegisteredStake, 10),
			strconv.FormatUint(s.TotalCommitteeStake, 10),
			strconv.Itoa(s.DistinctMembers),
			strconv.Itoa(s.MaxSingleMemberSeats),
			strconv.Itoa(s.SafeOfflineMembers),
			strconv.FormatUint(s.TopSafeOfflineStake, 10),
			strconv.FormatUint(s.BottomSafeOfflineStake, 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// sampleRegistered shuffles a copy of all and keeps the first n. n <= 0 keeps
// them all.
func sampleRegistered(all []simCandidate, n int, seed [32]byte) []simCandidate {
	s := append([]simCandidate{}, all...)
	// a distinct key from the selection seed
	seed[0] ^= 0xff
	selection.Shuffle[simCandidate](selection.NewChaCha(seed), s)
	if n > 0 && n < len(s) {
		s = s[:n]
	}
	return s
}

type memberSeats struct {
	id    string
	seats int
	stake uint64
}

func committeeStats(committee []string, registered []simCandidate, totalSeats int) simStats {

	s := simStats{}
	stakes := make(map[string]uint64, len(registered))
	for _, c := range registered {
		stakes[c.ID] = c.Stake
		s.TotalRegisteredStake += c.Stake
	}

	counts := map[string]int{}
	for _, id := range committee {
		counts[id]++
	}
	members := make([]memberSeats, 0, len(counts))
	for id, n := range counts {
		members = append(members, memberSeats{id: id, seats: n, stake: stakes[id]})
	}
	// most seats first, ties broken by id descending
	sort.Slice(members, func(i, j int) bool {
		if members[i].seats != members[j].seats {
			return members[i].seats > members[j].seats
		}
		if members[i].id != members[j].id {
			return members[i].id > members[j].id
		}
		return members[i].stake > members[j].stake
	})

	s.DistinctMembers = len(members)
	if len(members) == 0 || totalSeats == 0 {
		return s
	}
	s.MaxSingleMemberSeats = members[0].seats

	threshold := (totalSeats - 1) / 3

	seats := 0
	for _, m := range members {
		seats += m.seats
		s.TotalCommitteeStake += m.stake
		if seats <= threshold {
			s.TopSafeOfflineStake += m.stake
			s.SafeOfflineMembers++
		}
	}

	seats = 0
	for i := len(members) - 1; i >= 0; i-- {
		seats += members[i].seats
		if seats <= threshold {
			s.BottomSafeOfflineStake += members[i].stake
		}
	}
	return s
}
