package escrow

import (
	"testing"

	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
	"github.com/iov-one/lockpay/gconf"
	"github.com/iov-one/lockpay/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationValidate(t *testing.T) {
	def := DefaultConfiguration()
	require.NoError(t, def.Validate())

	zeroMin := def
	zeroMin.MinAmount = 0
	assert.True(t, errors.ErrInvalidAmount.Is(zeroMin.Validate()))

	zeroDeposit := def
	zeroDeposit.VaultDeposit = 0
	assert.True(t, errors.ErrInvalidAmount.Is(zeroDeposit.Validate()))

	zeroReserve := def
	zeroReserve.CustodianReserve = 0
	assert.True(t, errors.ErrInvalidAmount.Is(zeroReserve.Validate()))
}

func TestLoadConfigurationDefaults(t *testing.T) {
	db := store.MemStore()
	conf, err := LoadConfiguration(db)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfiguration(), *conf)

	stored := Configuration{MinAmount: 5, VaultDeposit: 6, CustodianReserve: 7}
	require.NoError(t, gconf.Save(db, confPkg, &stored))
	conf, err = LoadConfiguration(db)
	require.NoError(t, err)
	assert.Equal(t, stored, *conf)
}

func TestGenesisConfiguration(t *testing.T) {
	cases := map[string]struct {
		opts     lockpay.Options
		wantErr  *errors.Error
		wantConf Configuration
	}{
		"no configuration keeps the defaults": {
			opts:     lockpay.Options{},
			wantConf: DefaultConfiguration(),
		},
		"partial configuration": {
			opts: lockpay.Options{"conf": []byte(`{"escrow": {"min_amount": 1000}}`)},
			wantConf: Configuration{
				MinAmount:        1000,
				VaultDeposit:     DefaultConfiguration().VaultDeposit,
				CustodianReserve: DefaultConfiguration().CustodianReserve,
			},
		},
		"full configuration": {
			opts:     lockpay.Options{"conf": []byte(`{"escrow": {"min_amount": 10, "vault_deposit": 2, "custodian_reserve": 3}}`)},
			wantConf: Configuration{MinAmount: 10, VaultDeposit: 2, CustodianReserve: 3},
		},
		"zero minimum is rejected": {
			opts:    lockpay.Options{"conf": []byte(`{"escrow": {"min_amount": 0}}`)},
			wantErr: errors.ErrInvalidAmount,
		},
		"malformed configuration": {
			opts:    lockpay.Options{"conf": []byte(`{"escrow": {"min_amount": "many"}}`)},
			wantErr: errors.ErrInvalidInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			err := Initializer{}.FromGenesis(tc.opts, db)
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "%+v", err)
				return
			}
			require.NoError(t, err)
			conf, err := LoadConfiguration(db)
			require.NoError(t, err)
			assert.Equal(t, tc.wantConf, *conf)
		})
	}
}
