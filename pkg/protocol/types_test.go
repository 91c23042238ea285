package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValidCommands(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{"bank code", "BC", Command{Verb: VerbBankCode}},
		{"lowercase verb", "bc", Command{Verb: VerbBankCode}},
		{"create", "AC", Command{Verb: VerbAccountCreate}},
		{"total", "BA", Command{Verb: VerbBankAmount}},
		{"count", "BN", Command{Verb: VerbBankNumber}},
		{
			"deposit",
			"AD 12345/10.0.0.2 100",
			Command{Verb: VerbAccountDeposit, Account: AccountRef{12345, "10.0.0.2"}, Amount: 100},
		},
		{
			"withdraw",
			"AW 12345/10.0.0.2 50",
			Command{Verb: VerbAccountWithdraw, Account: AccountRef{12345, "10.0.0.2"}, Amount: 50},
		},
		{
			"zero amount",
			"AD 12345/10.0.0.2 0",
			Command{Verb: VerbAccountDeposit, Account: AccountRef{12345, "10.0.0.2"}, Amount: 0},
		},
		{
			"balance",
			"AB 12345/10.0.0.2",
			Command{Verb: VerbAccountBalance, Account: AccountRef{12345, "10.0.0.2"}},
		},
		{
			"remove",
			"AR 12345/10.0.0.2",
			Command{Verb: VerbAccountRemove, Account: AccountRef{12345, "10.0.0.2"}},
		},
		{
			"extra whitespace",
			"  AD   12345/10.0.0.2    7  ",
			Command{Verb: VerbAccountDeposit, Account: AccountRef{12345, "10.0.0.2"}, Amount: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		code    ErrCode
		message string
	}{
		{"empty line", "", CodeInvalidFormat, "Invalid command"},
		{"whitespace only", "   ", CodeInvalidFormat, "Invalid command"},
		{"unknown verb", "XX 1 2", CodeUnknownCommand, "Unknown command"},
		{"bank code with args", "BC extra", CodeInvalidFormat, "Invalid BC format"},
		{"deposit arg count", "AD 12345/10.0.0.2", CodeInvalidFormat, "Invalid AD format"},
		{"deposit missing ip", "AD 123 50", CodeInvalidAccountFormat, "Invalid deposit format"},
		{"deposit empty ip", "AD 123/ 50", CodeInvalidAccountFormat, "Invalid deposit format"},
		{"deposit two slashes", "AD 1/2/3 50", CodeInvalidAccountFormat, "Invalid deposit format"},
		{"deposit bad number", "AD abc/10.0.0.2 50", CodeInvalidAccountFormat, "Invalid deposit format"},
		{"deposit bad amount", "AD 12345/10.0.0.2 abc", CodeInvalidAmount, "Invalid deposit format"},
		{"deposit negative amount", "AD 12345/10.0.0.2 -5", CodeInvalidAmount, "Invalid deposit format"},
		{"withdraw arg count", "AW 12345/10.0.0.2 50 9", CodeInvalidFormat, "Invalid AW format"},
		{"withdraw bad amount", "AW 12345/10.0.0.2 x", CodeInvalidAmount, "Invalid withdrawal format"},
		{"balance arg count", "AB", CodeInvalidFormat, "Invalid AB format"},
		{"balance bad ref", "AB 12345", CodeInvalidAccountFormat, "Invalid account format"},
		{"remove bad ref", "AR /10.0.0.2", CodeInvalidAccountFormat, "Invalid account format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.line)
			require.Error(t, err)

			perr, ok := err.(*ParseError)
			require.True(t, ok, "expected *ParseError, got %T", err)
			assert.Equal(t, tt.code, perr.Code)
			assert.Equal(t, tt.message, perr.Message)
		})
	}
}

func TestCommandWire(t *testing.T) {
	tests := []struct {
		line string
		wire string
	}{
		{"AD 12345/10.0.0.2 100", "AD 12345/10.0.0.2 100"},
		{"aw 12345/10.0.0.2 50", "AW 12345/10.0.0.2 50"},
		{"AB  12345/10.0.0.2", "AB 12345/10.0.0.2"},
		{"AR 12345/10.0.0.2", "AR 12345/10.0.0.2"},
		{"BC", "BC"},
	}

	for _, tt := range tests {
		cmd, err := Parse(tt.line)
		require.NoError(t, err)
		assert.Equal(t, tt.wire, cmd.Wire())
	}
}
