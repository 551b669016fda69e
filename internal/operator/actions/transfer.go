package actions

import (
	"context"
	"fmt"

	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/sqlconfig"
)

type TransferState string

const (
	TransferPending    TransferState = "PENDING"
	TransferValidating TransferState = "VALIDATING"
	TransferDebiting   TransferState = "DEBITING"
	TransferCrediting  TransferState = "CREDITING"
	TransferCommitted  TransferState = "COMMITTED"
	TransferAborted    TransferState = "ABORTED"
)

// Transfer moves Amount from the sender to the receiver in one unit: a
// TRANSFER debit on the sender and a RECEIVE credit on the receiver.
type Transfer struct {
	SenderID   int64
	ReceiverID int64
	Amount     int64

	SenderBalance   int64
	ReceiverBalance int64

	State TransferState
	// Err is the error that moved the transfer to ABORTED.
	Err error
}

var (
	_ IAction  = (*Transfer)(nil)
	_ Finisher = (*Transfer)(nil)
)

func NewTransfer(senderID, receiverID, amount int64) *Transfer {
	return &Transfer{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Amount:     amount,
		State:      TransferPending,
	}
}

func (t *Transfer) Name() string {
	return "Transfer"
}

func (t *Transfer) Validate() error {
	t.State = TransferValidating
	if t.SenderID == t.ReceiverID {
		return t.abort(fmt.Errorf("%w: sender and receiver are both account %d", ErrInvalidTransfer, t.SenderID))
	}
	if err := validateAmount(t.Amount); err != nil {
		return t.abort(err)
	}
	return nil
}

type transferLeg struct {
	accountID int64
	txType    sqlconfig.TransactionType
	state     TransferState
	balance   *int64
}

// legs returns the debit and credit in ascending account id order, so two
// opposite transfers over the same pair always touch rows in the same order.
func (t *Transfer) legs() [2]transferLeg {
	debit := transferLeg{accountID: t.SenderID, txType: sqlconfig.TransactionTypeTransfer, state: TransferDebiting, balance: &t.SenderBalance}
	credit := transferLeg{accountID: t.ReceiverID, txType: sqlconfig.TransactionTypeReceive, state: TransferCrediting, balance: &t.ReceiverBalance}
	if t.ReceiverID < t.SenderID {
		return [2]transferLeg{credit, debit}
	}
	return [2]transferLeg{debit, credit}
}

func (t *Transfer) Perform(ctx context.Context, writer *storage.Writer) error {
	for _, leg := range t.legs() {
		t.State = leg.state
		account, err := applyMutation(ctx, writer, leg.accountID, t.Amount, leg.txType)
		if err != nil {
			return fmt.Errorf("transfer %s leg: %w", leg.txType, err)
		}
		*leg.balance = account.Balance
	}
	return nil
}

// Finish records the unit's outcome once it has committed or rolled back.
func (t *Transfer) Finish(err error) {
	if err != nil {
		t.abort(err)
		return
	}
	t.State = TransferCommitted
	t.Err = nil
}

func (t *Transfer) abort(err error) error {
	t.State = TransferAborted
	t.Err = err
	return err
}
