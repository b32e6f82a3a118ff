package services

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"yotereparo-backend/errs"
	"yotereparo-backend/models"
)

// decimalEnvelope is the (integer digits, fraction digits) precision a
// decimal field must fit in.
type decimalEnvelope struct {
	field    string
	integer  int
	fraction int
	value    func(*ServiceSubmission) *decimal.Decimal
}

var decimalEnvelopes = []decimalEnvelope{
	{"precioMaximo", 9, 2, func(s *ServiceSubmission) *decimal.Decimal { return s.PriceMax }},
	{"precioMinimo", 9, 2, func(s *ServiceSubmission) *decimal.Decimal { return s.PriceMin }},
	{"precioInsumos", 9, 2, func(s *ServiceSubmission) *decimal.Decimal { return s.PriceSupplies }},
	{"precioAdicionales", 9, 2, func(s *ServiceSubmission) *decimal.Decimal { return s.PriceExtras }},
	{"horasEstimadasEjecucion", 5, 2, func(s *ServiceSubmission) *decimal.Decimal { return s.EstimatedHours }},
}

var codeRank = map[errs.ViolationCode]int{
	errs.Missing:          0,
	errs.OutOfRange:       1,
	errs.BelowMinimum:     2,
	errs.UnknownReference: 3,
	errs.InvalidBounds:    4,
}

// SubmissionValidator checks a ServiceSubmission field by field and reports
// every violation it finds.
type SubmissionValidator struct {
	validate   *validator.Validate
	fieldOrder map[string]int
}

func NewSubmissionValidator() *SubmissionValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	order := make(map[string]int)
	t := reflect.TypeOf(ServiceSubmission{})
	for i := 0; i < t.NumField(); i++ {
		order[jsonFieldName(t.Field(i))] = i
	}

	return &SubmissionValidator{validate: v, fieldOrder: order}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// Validate returns the violations of sub ordered by field. An empty result
// means the submission may proceed to the ownership and existence checks.
func (v *SubmissionValidator) Validate(sub *ServiceSubmission) []errs.Violation {
	if sub == nil {
		sub = &ServiceSubmission{}
	}
	normalized := sub.normalized()

	var violations []errs.Violation
	if err := v.validate.Struct(normalized); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			for _, fe := range fieldErrors {
				violations = append(violations, errs.Violation{Field: fe.Field(), Code: violationCode(fe)})
			}
		}
	}

	for _, env := range decimalEnvelopes {
		if d := env.value(normalized); d != nil && !fitsEnvelope(*d, env.integer, env.fraction) {
			violations = append(violations, errs.Violation{Field: env.field, Code: errs.OutOfRange})
		}
	}

	v.sort(violations)

	// Bounds are only comparable once both prices passed their own checks.
	if normalized.PriceMax != nil && normalized.PriceMin != nil &&
		!hasViolation(violations, "precioMaximo") && !hasViolation(violations, "precioMinimo") &&
		normalized.PriceMax.LessThanOrEqual(*normalized.PriceMin) {
		violations = append(violations, errs.Violation{Field: "precioMaximo", Code: errs.InvalidBounds})
	}

	return violations
}

func (v *SubmissionValidator) sort(violations []errs.Violation) {
	sort.SliceStable(violations, func(i, j int) bool {
		fi, fj := v.fieldOrder[violations[i].Field], v.fieldOrder[violations[j].Field]
		if fi != fj {
			return fi < fj
		}
		return codeRank[violations[i].Code] < codeRank[violations[j].Code]
	})
}

func violationCode(fe validator.FieldError) errs.ViolationCode {
	switch fe.Tag() {
	case "required":
		return errs.Missing
	case "min":
		if fe.Kind() == reflect.Slice {
			return errs.Missing
		}
		return errs.BelowMinimum
	default:
		return errs.OutOfRange
	}
}

// fitsEnvelope reports whether d has at most integer digits before and
// fraction digits after the decimal point. Trailing fractional zeros do not
// count.
func fitsEnvelope(d decimal.Decimal, integer, fraction int) bool {
	s := d.Abs().String()
	intPart, fracPart, _ := strings.Cut(s, ".")
	intDigits := len(strings.TrimLeft(intPart, "0"))
	fracDigits := len(strings.TrimRight(fracPart, "0"))
	return intDigits <= integer && fracDigits <= fraction
}

func hasViolation(violations []errs.Violation, field string) bool {
	for _, v := range violations {
		if v.Field == field {
			return true
		}
	}
	return false
}

func (s *ServiceSubmission) normalized() *ServiceSubmission {
	n := *s
	n.Owner = strings.TrimSpace(s.Owner)
	n.Description = strings.TrimSpace(s.Description)
	n.Availability = normalizeText(s.Availability)
	n.ServiceType = strings.TrimSpace(s.ServiceType)
	n.PaymentMethods = models.NewPaymentMethodSet(s.PaymentMethods...)
	return &n
}
