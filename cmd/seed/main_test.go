package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/social-graph/internal/db"
)

func TestSeedMinimalCommand(t *testing.T) {
	path := t.TempDir() + "/seed.db"
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", path)
	t.Setenv("LOG_LEVEL", "error")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--minimal"})
	require.NoError(t, cmd.Execute())

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)
	var count int64
	require.NoError(t, gdb.Model(&db.Account{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestSeedRejectsUnknownFlag(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--everything"})
	assert.Error(t, cmd.Execute())
}
