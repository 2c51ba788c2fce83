// Package headless confirms Einsatzberichte without user interaction.
//
// A run is described by a YAML file (see Config). The executor logs in with
// the configured user, lists the reports, picks the ones to confirm through
// a Selector, confirms them one by one and logs out again:
//
//	┌──────────────────────────────────────┐
//	│          Headless Executor           │
//	│  - Login / Logout                    │
//	│  - Selection (ids, glob filters)     │
//	│  - Batch confirm                     │
//	│  - Artifact Generation               │
//	└──────────────────┬───────────────────┘
//	                   │
//	                   ▼
//	        ┌──────────────────────┐
//	        │   portal.Backend     │
//	        └──────────────────────┘
//
// Example usage:
//
//	config, _ := headless.LoadConfig("run.yaml")
//	client, _ := portal.NewClient(portal.DefaultEndpoints(config.Portal.BaseURL))
//	executor, _ := headless.NewExecutor(client, config)
//
//	if err := executor.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// The password is never stored in the run file. It is read from the
// environment variable named by portal.password_env (ERFASSINATOR_PASSWORD
// by default).
//
// Selection:
//
// Reports are chosen either by explicit ids or by all_pending, which takes
// every report in the pending status. Include and exclude title globs narrow
// the set further; an exclude match always wins.
//
// Artifacts:
//
// The artifact writer generates execution reports:
// - execution.json: Full execution summary
// - summary.md: Human-readable markdown summary
//
// A run ends as success, partial_success or failed. Only failed runs return
// an error.
package headless
