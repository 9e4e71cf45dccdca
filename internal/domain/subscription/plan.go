package subscription

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"github.com/subeth/subeth/internal/shared/errors"
)

var validate = validator.New()

const missingTermsMessage = "Plan missing token, receiver, or intervalSeconds (required for on-chain subscription)"

// Plan is the backend's plan. Subscribe operations treat it as immutable input.
type Plan struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Price           string `json:"price"`
	ImageURL        string `json:"imageUrl,omitempty"`
	Slug            string `json:"slug,omitempty"`
	Active          *bool  `json:"active,omitempty"`
	ChainID         *int64 `json:"chainId,omitempty"`
	Token           string `json:"token,omitempty" validate:"required"`
	Receiver        string `json:"receiver,omitempty" validate:"required"`
	IntervalSeconds int64  `json:"intervalSeconds,omitempty" validate:"gt=0"`
	TokenDecimals   *int   `json:"tokenDecimals,omitempty"`
	Creator         string `json:"creator,omitempty"`
	TokenSymbol     string `json:"tokenSymbol,omitempty"`
}

// Decimals returns the token decimals, defaulting to 18.
func (p *Plan) Decimals() int {
	if p.TokenDecimals == nil {
		return 18
	}
	return *p.TokenDecimals
}

// Validate checks the fields an on-chain subscription needs.
func (p *Plan) Validate() error {
	if err := validate.Struct(p); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
		}
		return errors.NewValidationError(missingTermsMessage, strings.Join(fields, ","))
	}
	if _, err := p.Amount(); err != nil {
		return err
	}
	return nil
}

// Amount parses the base-unit price.
func (p *Plan) Amount() (*big.Int, error) {
	amount, ok := new(big.Int).SetString(p.Price, 10)
	if !ok || amount.Sign() < 0 {
		return nil, errors.NewValidationError("Plan price must be a non-negative base-unit integer", p.Price)
	}
	return amount, nil
}

// Terms builds open-ended subscription terms from the plan: start immediately,
// no end time, unlimited executions.
func (p *Plan) Terms() (Terms, error) {
	if err := p.Validate(); err != nil {
		return Terms{}, err
	}
	amount, _ := p.Amount()
	return Terms{
		Token:    common.HexToAddress(p.Token),
		Receiver: common.HexToAddress(p.Receiver),
		Amount:   amount,
		Interval: uint64(p.IntervalSeconds),
	}, nil
}

// Terms are the createSubscription arguments.
type Terms struct {
	Token         common.Address
	Receiver      common.Address
	Amount        *big.Int
	Interval      uint64
	StartTime     uint64
	EndTime       uint64
	MaxExecutions uint32
}
