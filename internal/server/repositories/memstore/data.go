package memstore

import (
	"time"

	"github.com/dmitrijs2005/trackify/internal/server/models"
)

// Data is the set of tables. Values are stored by value so a shallow map
// clone is a full snapshot.
type Data struct {
	Users         map[string]models.User
	Transactions  map[string]models.Transaction
	Products      map[string]models.Product
	RefreshTokens map[string]models.RefreshToken // keyed by token

	lastStamp time.Time
}

func newData() *Data {
	return &Data{
		Users:         make(map[string]models.User),
		Transactions:  make(map[string]models.Transaction),
		Products:      make(map[string]models.Product),
		RefreshTokens: make(map[string]models.RefreshToken),
	}
}
