package cash

import (
	"testing"

	"github.com/iov-one/lockpay"
	"github.com/iov-one/lockpay/errors"
	"github.com/iov-one/lockpay/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitState(t *testing.T) {
	addr := lockpay.Address{1, 2, 3, 4, 5, 6, 7, 8, 9, 0, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27, 0x28, 0x29, 0x30}

	cases := map[string]struct {
		opts        lockpay.Options
		wantErr     *errors.Error
		wantBalance uint64
	}{
		"no data": {
			opts: lockpay.Options{},
		},
		"other extension data is ignored": {
			opts: lockpay.Options{"foo": []byte(`"bar"`)},
		},
		"malformed balance": {
			opts:    lockpay.Options{"cash": []byte(`[{"address": "0102030405060708090021222324252627282930", "balance": "x"}]`)},
			wantErr: errors.ErrInvalidInput,
		},
		"missing address": {
			opts:    lockpay.Options{"cash": []byte(`[{"balance": 123}]`)},
			wantErr: errors.ErrInvalidInput,
		},
		"funded account": {
			opts:        lockpay.Options{"cash": []byte(`[{"address": "0102030405060708090021222324252627282930", "balance": 50000000}]`)},
			wantBalance: 50000000,
		},
		"zero balance is skipped": {
			opts: lockpay.Options{"cash": []byte(`[{"address": "0102030405060708090021222324252627282930", "balance": 0}]`)},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			kv := store.MemStore()
			err := Initializer{}.FromGenesis(tc.opts, kv)
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err), "%+v", err)
				return
			}
			require.NoError(t, err)

			balance, err := NewController(NewBucket()).Balance(kv, addr)
			require.NoError(t, err)
			assert.Equal(t, tc.wantBalance, balance)
		})
	}
}
