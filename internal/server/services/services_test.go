package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/trackify/internal/logging"
	"github.com/dmitrijs2005/trackify/internal/server/config"
	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// --- helpers shared by the service tests ---

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
}

func newMemoryManager(t *testing.T) *repomanager.InMemoryRepositoryManager {
	t.Helper()
	return repomanager.NewInMemoryRepositoryManager()
}

func newWallet(m repomanager.RepositoryManager) *WalletService {
	s := NewWalletService(m, logging.Nop(), nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func addUser(t *testing.T, m repomanager.RepositoryManager, name string) *models.User {
	t.Helper()
	u, err := m.Users(m.DB()).Create(context.Background(), &models.User{UserName: name, PasswordHash: "x"})
	require.NoError(t, err)
	return u
}

func addProduct(t *testing.T, m repomanager.RepositoryManager, name, price string, stock int) *models.Product {
	t.Helper()
	p, err := m.Products(m.DB()).Create(context.Background(), &models.Product{
		Name: name, PriceUSD: dec(price), Stock: stock,
	})
	require.NoError(t, err)
	return p
}
