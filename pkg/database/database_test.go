package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

type testWidget struct {
	ID        string `gorm:"primaryKey"`
	Name      string
	CreatedAt time.Time
}

func TestOpenSQLiteMemory_Shared(t *testing.T) {
	db, err := OpenSQLiteMemory("TestOpenSQLiteMemory_Shared", &testWidget{})
	require.NoError(t, err)
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	require.NoError(t, db.Create(&testWidget{ID: "w1", Name: "first"}).Error)

	var got testWidget
	require.NoError(t, db.First(&got, "id = ?", "w1").Error)
	assert.Equal(t, "first", got.Name)
	assert.False(t, got.CreatedAt.IsZero())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestInitDB_UnsupportedDriver(t *testing.T) {
	_, err := InitDB(Options{Driver: "mysql", DSN: "root@/engine"})
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  logger.LogLevel
	}{
		{"静默", "silent", logger.Silent},
		{"错误", "ERROR", logger.Error},
		{"信息", "info", logger.Info},
		{"默认警告", "", logger.Warn},
		{"未知值按警告", "verbose", logger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.level))
		})
	}
}
