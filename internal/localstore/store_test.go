package localstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	path  string
	store *Store
	ctx   context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.path = filepath.Join(s.T().TempDir(), "data", "savvi.db")
	store, err := Open(s.path)
	require.NoError(s.T(), err, "failed to open local store")
	s.store = store
	s.ctx = context.Background()
}

func (s *StoreTestSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *StoreTestSuite) TestGetMissingKey() {
	_, ok, err := s.store.Get(s.ctx, "savvi-language")
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
}

func (s *StoreTestSuite) TestSetOverwrites() {
	require.NoError(s.T(), s.store.Set(s.ctx, "savvi-currency", "USD"))
	require.NoError(s.T(), s.store.Set(s.ctx, "savvi-currency", "IDR"))

	v, ok, err := s.store.Get(s.ctx, "savvi-currency")
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)
	assert.Equal(s.T(), "IDR", v)
}

func (s *StoreTestSuite) TestRemove() {
	require.NoError(s.T(), s.store.Set(s.ctx, "savvi-user", `{"id":"u1"}`))
	require.NoError(s.T(), s.store.Remove(s.ctx, "savvi-user"))
	require.NoError(s.T(), s.store.Remove(s.ctx, "savvi-user"), "removing twice is fine")

	_, ok, err := s.store.Get(s.ctx, "savvi-user")
	require.NoError(s.T(), err)
	assert.False(s.T(), ok)
}

func (s *StoreTestSuite) TestJSONRoundTrip() {
	type payload struct {
		Name  string   `json:"name"`
		Items []string `json:"items"`
	}
	in := payload{Name: "groceries", Items: []string{"a", "b"}}
	require.NoError(s.T(), s.store.SetJSON(s.ctx, "k", in))

	var out payload
	ok, err := s.store.GetJSON(s.ctx, "k", &out)
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)
	assert.Equal(s.T(), in, out)
}

func (s *StoreTestSuite) TestGetJSONCorruptValue() {
	require.NoError(s.T(), s.store.Set(s.ctx, "k", "{not json"))

	var out map[string]any
	ok, err := s.store.GetJSON(s.ctx, "k", &out)
	assert.Error(s.T(), err)
	assert.False(s.T(), ok)
}

func (s *StoreTestSuite) TestReopenKeepsData() {
	require.NoError(s.T(), s.store.Set(s.ctx, "savvi-darkmode", "false"))
	require.NoError(s.T(), s.store.Close())

	reopened, err := Open(s.path)
	require.NoError(s.T(), err, "reopen should not rerun migrations destructively")
	s.store = reopened

	v, ok, err := s.store.Get(s.ctx, "savvi-darkmode")
	require.NoError(s.T(), err)
	assert.True(s.T(), ok)
	assert.Equal(s.T(), "false", v)
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}
