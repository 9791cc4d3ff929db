package all

import (
	"testing"

	"github.com/leapstack-labs/butter/pkg/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinDialectsRegistered(t *testing.T) {
	for _, name := range []string{"generic", "sqlite", "postgresql", "mysql"} {
		t.Run(name, func(t *testing.T) {
			d, err := dialect.Lookup(name)
			require.NoError(t, err)
			assert.Equal(t, name, d.Name)
		})
	}
}

func TestDialectAliases(t *testing.T) {
	d, ok := dialect.Get("postgres")
	require.True(t, ok)
	assert.Equal(t, "postgresql", d.Name)
	assert.True(t, d.CastOperator)

	d, ok = dialect.Get("MySQL")
	require.True(t, ok)
	assert.True(t, d.HashComments)
}

func TestDialectNormalization(t *testing.T) {
	pg, _ := dialect.Get("postgresql")
	lite, _ := dialect.Get("sqlite")

	assert.Equal(t, "orders", pg.NormalizeName("Orders"))
	assert.True(t, lite.EqualNames("ORDERS", "orders"))

	closing, ok := lite.IsQuoteOpen('[')
	require.True(t, ok)
	assert.Equal(t, byte(']'), closing)

	_, ok = pg.IsQuoteOpen('`')
	assert.False(t, ok)
}
