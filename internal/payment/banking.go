package payment

import (
	"errors"
	"strings"
)

// Bank is a destination bank offered for manual transfers.
type Bank struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BankingConfig is the static receiving account plus the offered bank list.
type BankingConfig struct {
	AccountNumber string
	AccountName   string
	Banks         []Bank
}

// BankingService issues manual bank-transfer instructions. There is no
// automated confirmation for this method; an operator settles the order out
// of band after checking the account statement.
type BankingService struct {
	cfg BankingConfig
}

func NewBankingService(cfg BankingConfig) *BankingService {
	return &BankingService{cfg: cfg}
}

// TransferInfo is what the customer needs to complete a manual transfer.
type TransferInfo struct {
	BankID        string  `json:"bankId"`
	BankName      string  `json:"bankName"`
	AccountNumber string  `json:"accountNumber"`
	AccountName   string  `json:"accountName"`
	Amount        float64 `json:"amount"`
	Content       string  `json:"content"`
}

// Banks lists the configured destination banks.
func (s *BankingService) Banks() []Bank {
	return s.cfg.Banks
}

// Instructions assembles the static account details and the deterministic
// transfer-content string for an order.
func (s *BankingService) Instructions(orderID string, amount float64, bankID string) (TransferInfo, error) {
	if s.cfg.AccountNumber == "" || s.cfg.AccountName == "" {
		return TransferInfo{}, errors.New("bank transfer account is not configured")
	}

	var bank *Bank
	for i := range s.cfg.Banks {
		if strings.EqualFold(s.cfg.Banks[i].ID, bankID) {
			bank = &s.cfg.Banks[i]
			break
		}
	}
	if bank == nil {
		return TransferInfo{}, ErrUnknownBank
	}

	return TransferInfo{
		BankID:        bank.ID,
		BankName:      bank.Name,
		AccountNumber: s.cfg.AccountNumber,
		AccountName:   s.cfg.AccountName,
		Amount:        amount,
		Content:       TransferContent(orderID),
	}, nil
}

// TransferContent derives the statement line customers must put on their
// transfer so the operator can match it to the order.
func TransferContent(orderID string) string {
	return "ORDER-" + strings.ToUpper(orderID)
}
