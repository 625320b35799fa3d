package main

import (
	"database/sql"

	auditports "grantgate/internal/audit/ports"
	auditevents "grantgate/internal/audit/store/events"
	redisplatform "grantgate/internal/platform/redis"
	ratelimitports "grantgate/internal/ratelimit/ports"
	counter "grantgate/internal/ratelimit/store/counter"
	"grantgate/internal/retention"
	"grantgate/internal/retention/store/userdata"
	securityports "grantgate/internal/security/ports"
	"grantgate/internal/security/store/tracking"
	selftestports "grantgate/internal/selftest/ports"
	"grantgate/internal/selftest/store/results"
	"grantgate/pkg/platform/fieldcrypt"
)

// Store selection: postgres when a DSN is configured, in-memory otherwise;
// redis counters when a redis URL is configured, in-process otherwise. The
// in-memory fallbacks exist for local development and lose state on restart.

func auditEventStore(db *sql.DB, cipher *fieldcrypt.Cipher) auditports.Store {
	if db != nil {
		return auditevents.NewPostgresStore(db, cipher)
	}
	return auditevents.NewMemoryStore()
}

func counterStore(rdb *redisplatform.Client) ratelimitports.CounterStore {
	if rdb != nil {
		return counter.NewRedisStore(rdb.Client)
	}
	return counter.NewMemoryStore()
}

func trackingStores(db *sql.DB) (securityports.FailedLoginStore, securityports.LockStore, securityports.AlertStore, securityports.ActivityStore) {
	if db != nil {
		return tracking.NewPostgresFailedLoginStore(db),
			tracking.NewPostgresLockStore(db),
			tracking.NewPostgresAlertStore(db),
			tracking.NewPostgresActivityStore(db)
	}
	return tracking.NewMemoryFailedLoginStore(),
		tracking.NewMemoryLockStore(),
		tracking.NewMemoryAlertStore(),
		tracking.NewMemoryActivityStore()
}

func userDataStores(db *sql.DB) (retention.Prunable, retention.Prunable) {
	if db != nil {
		return userdata.NewPostgresPersonalInfoStore(db), userdata.NewPostgresDocumentStore(db)
	}
	return userdata.NewMemoryPersonalInfoStore(), userdata.NewMemoryDocumentStore()
}

func selftestResultStore(db *sql.DB) selftestports.ResultStore {
	if db != nil {
		return results.NewPostgresStore(db)
	}
	return results.NewMemoryStore()
}
