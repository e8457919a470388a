package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"pill-reminder/internal/adapters/storage/storetest"
	"pill-reminder/internal/domain/regimens"
)

func TestRegimensRepo(t *testing.T) {
	suite.Run(t, &storetest.RepositorySuite{
		NewRepo: func(now func() time.Time) regimens.Repository {
			return NewRegimensRepo(now)
		},
	})
}
