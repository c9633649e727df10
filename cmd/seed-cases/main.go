// Command seed-cases loads a YAML file of sample cases into the ledger.
// It is a development tool for populating a fresh ledger instance.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"collections_console/internal/ledger"
	"collections_console/platform/config"
	"collections_console/platform/logger"
	"collections_console/platform/phone"

	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Cases []seedCase `yaml:"cases"`
}

type seedCase struct {
	CompanyName string  `yaml:"company_name"`
	Amount      float64 `yaml:"amount"`
	AgeDays     int     `yaml:"age_days"`
	CreditScore float64 `yaml:"credit_score"`
	Phone       string  `yaml:"phone"`
}

func main() {
	var (
		file     = flag.String("file", "seed.yaml", "path to the YAML seed file")
		username = flag.String("username", os.Getenv("SEED_USERNAME"), "ledger username")
		password = flag.String("password", os.Getenv("SEED_PASSWORD"), "ledger password")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	log := logger.New(cfg.Env)

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Error("could not read seed file", "file", *file, "error", err)
		os.Exit(1)
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		log.Error("could not parse seed file", "file", *file, "error", err)
		os.Exit(1)
	}
	if len(seed.Cases) == 0 {
		log.Warn("seed file contains no cases", "file", *file)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := ledger.New(cfg.LedgerBaseURL, cfg.LedgerTimeout, log)
	token, err := client.Login(ctx, *username, *password)
	if err != nil {
		log.Error("ledger login failed", "error", err)
		os.Exit(1)
	}

	created := 0
	for _, sc := range seed.Cases {
		req := ledger.CreateCaseRequest{
			CompanyName: sc.CompanyName,
			Amount:      sc.Amount,
			AgeDays:     sc.AgeDays,
			CreditScore: sc.CreditScore,
		}
		if sc.Phone != "" && phone.IsValid(sc.Phone) {
			req.Phone = phone.NormalizeE164(sc.Phone)
		}

		if _, err := client.CreateCase(ctx, token.AccessToken, req); err != nil {
			log.Warn("case rejected", "company", sc.CompanyName, "error", err.Error())
			continue
		}
		created++
	}

	log.Info("seeding finished", "created", created, "total", len(seed.Cases))
}
