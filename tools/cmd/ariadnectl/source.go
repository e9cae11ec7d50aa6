package main

import (
	"crypto/ecdsa"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/urfave/cli.v1"

	ariadne "github.com/RobustRoundRobin/go-ariadne"
	"github.com/RobustRoundRobin/go-ariadne/dbsync"
	"github.com/RobustRoundRobin/go-ariadne/epochcache"
	"github.com/RobustRoundRobin/go-ariadne/logging"
	"github.com/RobustRoundRobin/go-ariadne/mock"
	"github.com/RobustRoundRobin/go-ariadne/secp256k1suite"
)

var (
	errNoSource = errors.New("provide exactly one of --db or --mock")
)

// env is what every data command needs
type env struct {
	config   *ariadne.Config
	logger   *logging.Logger
	suite    ariadne.CipherSuite
	cache    *epochcache.Cache
	selector *ariadne.Selector
	close    func() error
}

func newLogger(ctx *cli.Context) *logging.Logger {
	level := logging.LevelFromString(ctx.GlobalString(logLevelFlag.Name))
	return logging.New(os.Stderr, level, !ctx.GlobalBool(logJSONFlag.Name))
}

func openEnv(ctx *cli.Context) (*env, error) {

	config, err := loadConfig(ctx.GlobalString(configFlag.Name))
	if err != nil {
		return nil, err
	}

	e := &env{
		config: config,
		logger: newLogger(ctx),
		suite:  secp256k1suite.NewCipherSuite(),
		close:  func() error { return nil },
	}

	dbPath, mockPath := ctx.GlobalString(dbFlag.Name), ctx.GlobalString(mockFlag.Name)

	var src ariadne.DataSource
	switch {
	case dbPath != "" && mockPath == "":
		db, err := sql.Open("sqlite3", dbPath)
		if err != nil {
			return nil, err
		}
		s, err := dbsync.New(db, config, e.logger.With("source", "dbsync"))
		if err != nil {
			db.Close()
			return nil, err
		}
		src, e.close = s, db.Close

	case mockPath != "" && dbPath == "":
		r, err := mock.Load(mockPath)
		if err != nil {
			return nil, err
		}
		var nonces *mock.NonceSigner
		if keyFile := ctx.GlobalString(vrfKeyFlag.Name); keyFile != "" {
			key, err := loadKey(keyFile)
			if err != nil {
				return nil, err
			}
			nonces = mock.NewNonceSigner(e.suite, key, config.GenesisUtxo)
		}
		src = mock.NewSource(r, config, nonces, e.logger.With("source", "mock"))

	default:
		return nil, errNoSource
	}

	if e.cache, err = epochcache.New(src, config, e.logger.With("component", "epochcache")); err != nil {
		e.close()
		return nil, err
	}
	e.selector = ariadne.NewSelector(config, e.suite, e.cache, e.logger)
	return e, nil
}

func loadKey(path string) (*ecdsa.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var secret ariadne.HexBytes
	if err := secret.UnmarshalText([]byte(strings.TrimSpace(string(b)))); err != nil {
		return nil, fmt.Errorf("key file `%s': %w", path, err)
	}
	return secp256k1suite.KeyFromBytes(secret)
}
