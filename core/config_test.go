package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/schoolcal/core"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		secretKey string
		wantErr   error
	}{
		{"debug with the dev key", true, "s3cr3t-k3y-f0r-l0cal-d3v3l0pm3nt-0nly!!", nil},
		{"production with the dev key", false, "s3cr3t-k3y-f0r-l0cal-d3v3l0pm3nt-0nly!!", core.ErrInsecureSecretKey},
		{"production without a key", false, "", core.ErrInsecureSecretKey},
		{"production with its own key", false, "pr0d-k3y-fr0m-th3-v4ult", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := core.NewTestConfig()
			conf.Debug = tt.debug
			conf.SecretKey = tt.secretKey
			assert.Equal(t, tt.wantErr, conf.Validate())
		})
	}
}
