package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/trogers1052/stock-analytics-engine/internal/models"
	"github.com/trogers1052/stock-analytics-engine/internal/service"
)

const maxWindow = 1000

type analysisQuery struct {
	Symbol    string `json:"symbol" validate:"required,symbol"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Windows   string `json:"windows" validate:"omitempty,windows"`
}

type correlationQuery struct {
	Symbols   string `json:"symbols" validate:"omitempty,symbols"`
	StartDate string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("symbol", func(fl validator.FieldLevel) bool {
		return models.ValidSymbol(fl.Field().String())
	})
	v.RegisterValidation("symbols", func(fl validator.FieldLevel) bool {
		for _, s := range strings.Split(fl.Field().String(), ",") {
			s = strings.TrimSpace(s)
			if s != "" && !models.ValidSymbol(s) {
				return false
			}
		}
		return true
	})
	v.RegisterValidation("windows", func(fl validator.FieldLevel) bool {
		_, err := parseWindows(fl.Field().String())
		return err == nil
	})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

func (q analysisQuery) request() (service.Request, error) {
	start, end, err := dateBounds(q.StartDate, q.EndDate)
	if err != nil {
		return service.Request{}, err
	}
	windows, err := parseWindows(q.Windows)
	if err != nil {
		return service.Request{}, err
	}
	return service.Request{Symbol: q.Symbol, Start: start, End: end, Windows: windows}, nil
}

func (q correlationQuery) bounds() (*time.Time, *time.Time, error) {
	return dateBounds(q.StartDate, q.EndDate)
}

func dateBounds(rawStart, rawEnd string) (*time.Time, *time.Time, error) {
	start, err := parseDate(rawStart)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid start_date: %w", err)
	}
	end, err := parseDate(rawEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid end_date: %w", err)
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, nil, errors.New("start_date must not be after end_date")
	}
	return start, end, nil
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseWindows reads a comma list of positive window sizes
func parseWindows(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	windows := make([]int, 0, len(parts))
	for _, p := range parts {
		w, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid window %q", p)
		}
		if w <= 0 || w > maxWindow {
			return nil, fmt.Errorf("window %d out of range 1..%d", w, maxWindow)
		}
		windows = append(windows, w)
	}
	return windows, nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func respondValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		respondJSON(w, http.StatusBadRequest, errorBody{
			Error: fmt.Sprintf("invalid %s: failed %s validation", fe.Field(), fe.Tag()),
			Code:  CodeBadRequest,
		})
		return
	}
	respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: CodeBadRequest})
}
