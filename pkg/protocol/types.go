package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Verb is the two-letter command code of the banking protocol.
type Verb string

const (
	VerbBankCode        Verb = "BC"
	VerbAccountCreate   Verb = "AC"
	VerbAccountDeposit  Verb = "AD"
	VerbAccountWithdraw Verb = "AW"
	VerbAccountBalance  Verb = "AB"
	VerbAccountRemove   Verb = "AR"
	VerbBankAmount      Verb = "BA"
	VerbBankNumber      Verb = "BN"
)

// AccountRef identifies an account globally: the account number paired with
// the address of the bank that owns it. BankIP is compared as a literal
// string against the node's configured host to decide local vs. forwarded
// execution; it is never resolved.
type AccountRef struct {
	Number int
	BankIP string
}

func (r AccountRef) String() string {
	return fmt.Sprintf("%d/%s", r.Number, r.BankIP)
}

// Command is one parsed protocol line. Only the fields the verb needs are
// populated: Account for AD/AW/AB/AR, Amount for AD/AW.
type Command struct {
	Verb    Verb
	Account AccountRef
	Amount  int64
}

// Wire re-serializes the command exactly as it must be relayed to a peer
// bank: same verb, same account reference, same amount.
func (c Command) Wire() string {
	switch c.Verb {
	case VerbAccountDeposit, VerbAccountWithdraw:
		return fmt.Sprintf("%s %s %d", c.Verb, c.Account, c.Amount)
	case VerbAccountBalance, VerbAccountRemove:
		return fmt.Sprintf("%s %s", c.Verb, c.Account)
	default:
		return string(c.Verb)
	}
}

// ErrCode classifies parse failures.
type ErrCode int

const (
	CodeInvalidFormat ErrCode = iota
	CodeInvalidAccountFormat
	CodeInvalidAmount
	CodeUnknownCommand
)

// ParseError is the only error type Parse returns. Message is the wire
// message for the client, without the "ER " prefix.
type ParseError struct {
	Code    ErrCode
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

// Parse turns one raw line into a Command. It never panics past this
// boundary: every malformed input becomes a *ParseError whose Message can be
// sent back verbatim.
func Parse(line string) (Command, error) {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return Command{}, &ParseError{Code: CodeInvalidFormat, Message: "Invalid command"}
	}

	verb := Verb(strings.ToUpper(parts[0]))
	switch verb {
	case VerbBankCode, VerbAccountCreate, VerbBankAmount, VerbBankNumber:
		if len(parts) != 1 {
			return Command{}, &ParseError{
				Code:    CodeInvalidFormat,
				Message: fmt.Sprintf("Invalid %s format", verb),
			}
		}
		return Command{Verb: verb}, nil

	case VerbAccountDeposit:
		return parseMoneyCommand(verb, parts, "Invalid deposit format")

	case VerbAccountWithdraw:
		return parseMoneyCommand(verb, parts, "Invalid withdrawal format")

	case VerbAccountBalance, VerbAccountRemove:
		if len(parts) != 2 {
			return Command{}, &ParseError{
				Code:    CodeInvalidFormat,
				Message: fmt.Sprintf("Invalid %s format", verb),
			}
		}
		ref, ok := parseAccountRef(parts[1])
		if !ok {
			return Command{}, &ParseError{Code: CodeInvalidAccountFormat, Message: "Invalid account format"}
		}
		return Command{Verb: verb, Account: ref}, nil

	default:
		return Command{}, &ParseError{Code: CodeUnknownCommand, Message: "Unknown command"}
	}
}

// parseMoneyCommand handles the shared <account>/<bankIP> <amount> shape of
// AD and AW. badShape is the verb-specific message used when the account
// reference or the amount is malformed.
func parseMoneyCommand(verb Verb, parts []string, badShape string) (Command, error) {
	if len(parts) != 3 {
		return Command{}, &ParseError{
			Code:    CodeInvalidFormat,
			Message: fmt.Sprintf("Invalid %s format", verb),
		}
	}

	ref, ok := parseAccountRef(parts[1])
	if !ok {
		return Command{}, &ParseError{Code: CodeInvalidAccountFormat, Message: badShape}
	}

	amount, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || amount < 0 {
		return Command{}, &ParseError{Code: CodeInvalidAmount, Message: badShape}
	}

	return Command{Verb: verb, Account: ref, Amount: amount}, nil
}

// parseAccountRef splits <number>/<bankIP>. Both components must be
// non-empty and the number must be a non-negative integer.
func parseAccountRef(s string) (AccountRef, bool) {
	fields := strings.Split(s, "/")
	if len(fields) != 2 || fields[0] == "" || fields[1] == "" {
		return AccountRef{}, false
	}
	number, err := strconv.Atoi(fields[0])
	if err != nil || number < 0 {
		return AccountRef{}, false
	}
	return AccountRef{Number: number, BankIP: fields[1]}, true
}
