package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/schedule-builder-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Name: "schedule_builder", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=schedule_builder sslmode=disable", dsn)
}

func TestMigrationSourceEmbedsInitialSchema(t *testing.T) {
	src, err := MigrationSource()
	if !assert.NoError(t, err) {
		return
	}
	defer src.Close()

	first, err := src.First()
	assert.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, ident, err := src.ReadUp(first)
	assert.NoError(t, err)
	assert.Equal(t, "init", ident)
	if up != nil {
		up.Close()
	}
}
