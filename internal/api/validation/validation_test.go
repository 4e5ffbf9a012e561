package validation

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Rank    int      `json:"preference_rank" binding:"required,preference_rank"`
	Average *float64 `json:"average"         binding:"omitempty,grade"`
	Status  string   `form:"status"          binding:"omitempty,subject_status"`
}

func TestRegister_CustomRules(t *testing.T) {
	require.NoError(t, Register())
	require.NoError(t, Register(), "重复注册应无副作用")

	ok := 14.5
	bad := 20.5
	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{"合法", sample{Rank: 3, Average: &ok, Status: "approved"}, ""},
		{"志愿序号越界", sample{Rank: 6}, "preference_rank"},
		{"成绩越界", sample{Rank: 1, Average: &bad}, "average"},
		{"未知状态", sample{Rank: 1, Status: "archived"}, "status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tt.in)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			msg := Translate(err)
			assert.True(t, strings.Contains(msg, tt.wantErr), "提示应包含字段名: %s", msg)
		})
	}
}

func TestTranslate_NonValidationError(t *testing.T) {
	assert.Empty(t, Translate(assert.AnError))
}
