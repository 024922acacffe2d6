package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v2"

	apicashflow "finsim/pkg/api/cashflow"
	apiscenario "finsim/pkg/api/scenario"
	apisensitivity "finsim/pkg/api/sensitivity"
	apivaluation "finsim/pkg/api/valuation"
	"finsim/pkg/core/sensitivity"
	"finsim/pkg/core/store"
	"finsim/pkg/core/valuation"
)

// AppConfig is the application config loaded from config/app.yaml.
type AppConfig struct {
	Port            string                    `yaml:"port"`
	MatrixCeiling   int                       `yaml:"matrix_ceiling"`
	MonteCarloCap   int                       `yaml:"monte_carlo_cap"`
	RevaluationCron string                    `yaml:"revaluation_cron"`
	Valuation       valuation.ValuationConfig `yaml:"valuation"`
}

func loadConfig() AppConfig {
	var cfg AppConfig
	data, err := os.ReadFile("config/app.yaml")
	if err != nil {
		fmt.Printf("[CONFIG] config/app.yaml not found, using defaults: %v\n", err)
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		fmt.Printf("[CONFIG] failed to parse config/app.yaml: %v\n", err)
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	return cfg
}

// revalueAll recomputes and snapshots the valuation of every stored scenario.
func revalueAll(scenarios *store.ScenarioRepo, snapshots *store.SnapshotRepo, cfg valuation.ValuationConfig) {
	ctx := context.Background()
	list, err := scenarios.List(ctx)
	if err != nil {
		fmt.Printf("[JOB] revaluation skipped, list failed: %v\n", err)
		return
	}
	for _, s := range list {
		breakdown, err := valuation.ComputeValuation(s, &cfg)
		if err != nil {
			fmt.Printf("[JOB] revaluation of %s failed: %v\n", s.ID, err)
			continue
		}
		if err := snapshots.Save(ctx, s.ID, breakdown); err != nil {
			fmt.Printf("[JOB] snapshot of %s failed: %v\n", s.ID, err)
			continue
		}
	}
	fmt.Printf("[JOB] revalued %d scenarios\n", len(list))
}

func main() {
	// Load environment variables
	godotenv.Load()

	cfg := loadConfig()

	// Database is required for scenario persistence; the engines still work
	// with inline scenarios when it is down.
	dbReady := true
	if err := store.InitDB(context.Background()); err != nil {
		fmt.Printf("[STORE] database unavailable, persistence disabled: %v\n", err)
		dbReady = false
	} else {
		defer store.Close()
	}

	scenarios := store.NewScenarioRepo()
	snapshots := store.NewSnapshotRepo()
	engine := sensitivity.NewEngine(cfg.MatrixCeiling, cfg.MonteCarloCap)

	scenarioHandler := apiscenario.NewHandler(scenarios)
	cashflowHandler := apicashflow.NewHandler(scenarios)
	valuationHandler := apivaluation.NewHandler(scenarios, snapshots, cfg.Valuation)
	sensitivityHandler := apisensitivity.NewHandler(scenarios, engine, cfg.Valuation)

	r := mux.NewRouter()
	r.HandleFunc("/api/scenarios", scenarioHandler.HandleList).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/scenarios", scenarioHandler.HandleSave).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/scenarios/project", scenarioHandler.HandleProject).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/scenarios/{id}", scenarioHandler.HandleGet).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/scenarios/{id}", scenarioHandler.HandleDelete).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/api/scenarios/{id}/valuation", valuationHandler.HandleLatestSnapshot).Methods("GET", "OPTIONS")

	r.HandleFunc("/api/cashflow/forecast", cashflowHandler.HandleForecast).Methods("POST", "OPTIONS")

	r.HandleFunc("/api/valuation", valuationHandler.HandleCompute).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/valuation/report", valuationHandler.HandleReport).Methods("POST", "OPTIONS")

	r.HandleFunc("/api/sensitivity/tornado", sensitivityHandler.HandleTornado).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/sensitivity/matrix", sensitivityHandler.HandleMatrix).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/sensitivity/montecarlo", sensitivityHandler.HandleMonteCarlo).Methods("POST", "OPTIONS")

	// Nightly revaluation keeps the snapshot history fresh.
	if dbReady && cfg.RevaluationCron != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.RevaluationCron, func() {
			revalueAll(scenarios, snapshots, cfg.Valuation)
		}); err != nil {
			fmt.Printf("[JOB] bad revaluation schedule %q: %v\n", cfg.RevaluationCron, err)
		} else {
			c.Start()
			defer c.Stop()
			fmt.Printf("[JOB] revaluation scheduled: %s\n", cfg.RevaluationCron)
		}
	}

	fmt.Printf("API server starting on :%s...\n", cfg.Port)
	fmt.Println("  - GET    /api/scenarios")
	fmt.Println("  - POST   /api/scenarios")
	fmt.Println("  - POST   /api/scenarios/project")
	fmt.Println("  - GET    /api/scenarios/{id}")
	fmt.Println("  - DELETE /api/scenarios/{id}")
	fmt.Println("  - GET    /api/scenarios/{id}/valuation")
	fmt.Println("  - POST   /api/cashflow/forecast")
	fmt.Println("  - POST   /api/valuation")
	fmt.Println("  - POST   /api/valuation/report")
	fmt.Println("  - POST   /api/sensitivity/tornado")
	fmt.Println("  - POST   /api/sensitivity/matrix")
	fmt.Println("  - POST   /api/sensitivity/montecarlo")

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
