package reconciler

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"gst-reconciliation-service/pkg/errors"
)

const (
	// DefaultDateToleranceDays is the largest date gap, in days, not reported
	DefaultDateToleranceDays = 3
	// DefaultAmountTolerance is the largest currency gap not reported
	DefaultAmountTolerance = "1.00"
)

// Settings are the parameters of one reconciliation run. A Settings value is
// immutable once handed to an Engine.
type Settings struct {
	// DateToleranceDays is the number of days two invoice dates may differ
	DateToleranceDays int `json:"date_tolerance_days" mapstructure:"date_tolerance" validate:"gte=0"`

	// AmountTolerance applies to both total amount and tax total
	AmountTolerance decimal.Decimal `json:"amount_tolerance" mapstructure:"amount_tolerance" validate:"gte=0"`

	// CleanIdentifiers enables GSTIN cleansing during normalization. Ledgers
	// apply it on import; the engine rejects ledgers loaded the other way.
	CleanIdentifiers bool `json:"clean_identifiers" mapstructure:"clean_identifiers"`
}

// DefaultSettings returns 3 days, ₹1.00 and cleansing on
func DefaultSettings() Settings {
	return Settings{
		DateToleranceDays: DefaultDateToleranceDays,
		AmountTolerance:   decimal.RequireFromString(DefaultAmountTolerance),
		CleanIdentifiers:  true,
	}
}

// StrictSettings returns zero tolerances, so any difference is reported
func StrictSettings() Settings {
	return Settings{
		DateToleranceDays: 0,
		AmountTolerance:   decimal.Zero,
		CleanIdentifiers:  true,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// settingNames maps struct fields to the names users set them by
var settingNames = map[string]string{
	"DateToleranceDays": "date_tolerance",
	"AmountTolerance":   "amount_tolerance",
}

// Validate checks that both tolerances are non-negative
func (s Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "settings", s, err)
	}

	fe := verrs[0]
	name := settingNames[fe.Field()]
	if name == "" {
		name = fe.Field()
	}
	return errors.ConfigurationError(errors.CodeInvalidTolerance, name, fe.Value(),
		fmt.Errorf("%s failed '%s' check", name, fe.Tag()))
}

// ParseSettings builds Settings from raw user input. On any invalid value the
// prior settings are returned unchanged together with a configuration error;
// nothing is clamped.
func ParseSettings(prior Settings, dateTolerance, amountTolerance string, cleanIdentifiers bool) (Settings, error) {
	dateTolerance = strings.TrimSpace(dateTolerance)
	amountTolerance = strings.TrimSpace(amountTolerance)

	days, ok := parseWholeDays(dateTolerance)
	if !ok {
		return prior, errors.ConfigurationError(errors.CodeInvalidTolerance, "date_tolerance", dateTolerance,
			fmt.Errorf("date tolerance must be a non-negative whole number of days"))
	}

	amount, err := decimal.NewFromString(amountTolerance)
	if err != nil {
		return prior, errors.ConfigurationError(errors.CodeInvalidTolerance, "amount_tolerance", amountTolerance, err)
	}

	next := Settings{
		DateToleranceDays: days,
		AmountTolerance:   amount,
		CleanIdentifiers:  cleanIdentifiers,
	}
	if err := next.Validate(); err != nil {
		return prior, err
	}
	return next, nil
}

// maxToleranceDays bounds the date tolerance to a sane range
const maxToleranceDays = 999999

// parseWholeDays rejects signs as well as fractions, so "-1", "+1", "1.5"
// and "" are errors rather than coerced values.
func parseWholeDays(s string) (int, bool) {
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > maxToleranceDays {
		return 0, false
	}
	return n, true
}

// String renders the settings the way the summary reports them
func (s Settings) String() string {
	return fmt.Sprintf("date tolerance %d days, amount tolerance ₹%s, clean GSTINs %t",
		s.DateToleranceDays, s.AmountTolerance.StringFixed(2), s.CleanIdentifiers)
}
