package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Address identifies a stream party. Addresses are opaque to the ledger beyond
// format validation; signing and key custody belong to the wallet collaborator.
type Address string

const addressHexLen = 40

// ParseAddress validates and normalizes a 0x-prefixed hex address.
func ParseAddress(value string) (Address, error) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "0x") && !strings.HasPrefix(trimmed, "0X") {
		return "", fmt.Errorf("%w: address %q must start with 0x", ErrInvalidInput, value)
	}
	hexPart := trimmed[2:]
	if len(hexPart) != addressHexLen {
		return "", fmt.Errorf("%w: address %q must be %d hex characters", ErrInvalidInput, value, addressHexLen)
	}
	for _, r := range hexPart {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return "", fmt.Errorf("%w: address %q contains non-hex character %q", ErrInvalidInput, value, r)
		}
	}
	return Address("0x" + strings.ToLower(hexPart)), nil
}

// Stream is a continuous payment commitment from Sender to Recipient at a
// fixed FlowRate, funded by an escrowed deposit. Balance holds the settled
// remainder as of LastSettled; the live value at any instant is Project.
type Stream struct {
	ID          uint64
	Sender      Address
	Recipient   Address
	FlowRate    uint64 // base units per second, immutable for the stream's life
	Balance     uint64 // settled base units
	LastSettled time.Time
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ClosedAt    time.Time // zero until closed
}

// IsParty reports whether addr is the stream's sender or recipient.
func (s Stream) IsParty(addr Address) bool {
	return addr == s.Sender || addr == s.Recipient
}

// DisplayStatus classifies a stream for presentation: closed streams are
// terminal, active streams whose projection has reached zero are depleted,
// everything else is streaming. Depletion is derived, never stored; a depleted
// stream stays active until someone closes it.
type DisplayStatus string

const (
	DisplayStreaming DisplayStatus = "streaming"
	DisplayDepleted  DisplayStatus = "depleted"
	DisplayClosed    DisplayStatus = "closed"
)

// Display returns the presentation status of the stream as of now.
func (s Stream) Display(now time.Time) DisplayStatus {
	if !s.Active {
		return DisplayClosed
	}
	if Project(s, now) == 0 {
		return DisplayDepleted
	}
	return DisplayStreaming
}

// TransferKind classifies a funds movement recorded in the transfers journal.
type TransferKind string

const (
	TransferDeposit TransferKind = "deposit" // sender escrows the deposit at creation
	TransferPayout  TransferKind = "payout"  // accrued amount paid to the recipient at close
	TransferRefund  TransferKind = "refund"  // unspent remainder returned to the sender at close
)

// Transfer is one journal row. Deposit/payout/refund rows let the conservation
// property be audited after the fact: payout + refund always equals deposit
// minus nothing, since settlement happens inside the same transaction.
type Transfer struct {
	ID           string
	StreamID     uint64
	Kind         TransferKind
	Counterparty Address
	Amount       uint64
	CreatedAt    time.Time
}

// Settlement describes the outcome of closing a stream: the balance after
// settling at the close instant, how much of the original balance accrued to
// the recipient, and how much was refunded to the sender.
type Settlement struct {
	StreamID uint64
	Settled  uint64 // balance after settlement, refunded to sender
	Paid     uint64 // accrued amount paid to recipient
	Refunded uint64 // equals Settled; kept explicit for the journal
	ClosedAt time.Time
}
