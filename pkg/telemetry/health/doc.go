// Package health provides liveness and readiness probes.
//
// Components register a CheckFunc with a Checker: the audit store and the
// asset store through PingCheck, and every evidence backend through its
// HealthCheck method. A Monitor runs the checks on a cron schedule and the
// readiness endpoint serves the latest result, so a burst of probe traffic
// never fans out to the backends.
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("audit", health.PingCheck(store))
//	checker.RegisterCheck("source:hive", hive.HealthCheck)
//
//	monitor := health.NewMonitor(checker, "@every 30s")
//	if err := monitor.Start(ctx); err != nil {
//	    return err
//	}
//
//	router.Get("/health", checker.LivenessHandler())
//	router.Get("/ready", checker.ReadinessHandler())
//	router.Get("/version", health.VersionHandler(health.NewVersionInfo(version, commit, date)))
//
// /ready answers 503 while any component is unhealthy.
package health
