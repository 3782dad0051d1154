package retention

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Spec
		wantErr error
	}{
		{name: "годы", input: "5 Years", want: Spec{Value: 5, Unit: UnitYears}},
		{name: "единственное число", input: "1 Year", want: Spec{Value: 1, Unit: UnitYears}},
		{name: "месяцы", input: "18 Months", want: Spec{Value: 18, Unit: UnitMonths}},
		{name: "недели", input: "2 Weeks", want: Spec{Value: 2, Unit: UnitWeeks}},
		{name: "дни", input: "90 Days", want: Spec{Value: 90, Unit: UnitDays}},
		{name: "бессрочно", input: "Permanent", want: Spec{Unit: UnitPermanent}},
		{name: "бессрочно в нижнем регистре", input: "permanent", want: Spec{Unit: UnitPermanent}},
		{name: "лишние пробелы", input: "  3 Years  ", want: Spec{Value: 3, Unit: UnitYears}},
		{name: "пустая строка", input: "", wantErr: ErrEmptySpec},
		{name: "нулевая длительность", input: "0 Years", wantErr: ErrNonPositiveSpec},
		{name: "отрицательная длительность", input: "-2 Days", wantErr: ErrNonPositiveSpec},
		{name: "неизвестная единица", input: "5 Decades", wantErr: ErrUnknownUnit},
		{name: "без длительности", input: "Years", wantErr: ErrUnknownUnit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q): ошибка %v, ожидалась %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q): неожиданная ошибка: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, ожидалось %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    Spec
		wantErr error
	}{
		{name: "корректный срок", spec: Spec{Value: 5, Unit: UnitYears}},
		{name: "бессрочно без длительности", spec: Spec{Unit: UnitPermanent}},
		{name: "ноль", spec: Spec{Value: 0, Unit: UnitDays}, wantErr: ErrNonPositiveSpec},
		{name: "отрицательное", spec: Spec{Value: -1, Unit: UnitMonths}, wantErr: ErrNonPositiveSpec},
		{name: "пустая единица", spec: Spec{Value: 5}, wantErr: ErrUnknownUnit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate(%+v): неожиданная ошибка: %v", tt.spec, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate(%+v): ошибка %v, ожидалась %v", tt.spec, err, tt.wantErr)
			}
		})
	}
}

func TestDisposalDate(t *testing.T) {
	ref := date(2024, time.January, 1)

	tests := []struct {
		name string
		spec Spec
		want time.Time
	}{
		{name: "5 лет", spec: Spec{Value: 5, Unit: UnitYears}, want: date(2029, time.January, 1)},
		{name: "18 месяцев", spec: Spec{Value: 18, Unit: UnitMonths}, want: date(2025, time.July, 1)},
		{name: "2 недели", spec: Spec{Value: 2, Unit: UnitWeeks}, want: date(2024, time.January, 15)},
		{name: "90 дней", spec: Spec{Value: 90, Unit: UnitDays}, want: date(2024, time.March, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.spec.DisposalDate(ref)
			if !ok {
				t.Fatalf("DisposalDate(%+v): ожидалась конкретная дата", tt.spec)
			}
			if !got.Equal(tt.want) {
				t.Errorf("DisposalDate = %v, ожидалось %v", got, tt.want)
			}
			if !got.After(ref) {
				t.Errorf("дата утилизации %v не позже опорной %v", got, ref)
			}
		})
	}

	t.Run("бессрочно без даты", func(t *testing.T) {
		if _, ok := (Spec{Unit: UnitPermanent}).DisposalDate(ref); ok {
			t.Error("для Permanent дата утилизации не вычисляется")
		}
	})
}

func TestDaysRemaining(t *testing.T) {
	tests := []struct {
		name     string
		deadline time.Time
		now      time.Time
		want     int
	}{
		{
			name:     "ровно 17 дней",
			deadline: date(2029, time.January, 1),
			now:      date(2028, time.December, 15),
			want:     17,
		},
		{
			name:     "неполные сутки округляются вверх",
			deadline: date(2025, time.March, 2),
			now:      time.Date(2025, time.March, 1, 18, 0, 0, 0, time.UTC),
			want:     1,
		},
		{
			name:     "тот же момент",
			deadline: date(2025, time.March, 1),
			now:      date(2025, time.March, 1),
			want:     0,
		},
		{
			name:     "срок истёк",
			deadline: date(2025, time.March, 1),
			now:      date(2025, time.March, 10),
			want:     -9,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysRemaining(tt.deadline, tt.now); got != tt.want {
				t.Errorf("DaysRemaining = %d, ожидалось %d", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	ref := date(2024, time.January, 1)

	tests := []struct {
		name       string
		spec       Spec
		now        time.Time
		wantStatus Status
		wantLabel  string
	}{
		{
			// Правило {5, Years} от 2024-01-01: на 2028-12-15
			// остаётся 17 дней — предупреждение.
			name:       "предупреждение за 17 дней",
			spec:       Spec{Value: 5, Unit: UnitYears},
			now:        date(2028, time.December, 15),
			wantStatus: StatusWarning,
			wantLabel:  "17 Days Left",
		},
		{
			name:       "срок истёк",
			spec:       Spec{Value: 1, Unit: UnitYears},
			now:        date(2025, time.June, 1),
			wantStatus: StatusExpired,
			wantLabel:  "Action Required",
		},
		{
			name:       "до утилизации далеко",
			spec:       Spec{Value: 5, Unit: UnitYears},
			now:        date(2024, time.June, 1),
			wantStatus: StatusSecure,
		},
		{
			name:       "граница окна: ровно 30 дней",
			spec:       Spec{Value: 30, Unit: UnitDays},
			now:        ref,
			wantStatus: StatusSecure,
		},
		{
			name:       "граница окна: 29 дней",
			spec:       Spec{Value: 29, Unit: UnitDays},
			now:        ref,
			wantStatus: StatusWarning,
			wantLabel:  "29 Days Left",
		},
		{
			name:       "день утилизации",
			spec:       Spec{Value: 10, Unit: UnitDays},
			now:        date(2024, time.January, 11),
			wantStatus: StatusWarning,
			wantLabel:  "0 Days Left",
		},
		{
			name:       "бессрочно всегда Secure",
			spec:       Spec{Unit: UnitPermanent},
			now:        date(2099, time.January, 1),
			wantStatus: StatusSecure,
			wantLabel:  "Permanent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.spec.Classify(ref, tt.now)
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %v, ожидалось %v", got.Status, tt.wantStatus)
			}
			if tt.wantLabel != "" && got.Label != tt.wantLabel {
				t.Errorf("Label = %q, ожидалось %q", got.Label, tt.wantLabel)
			}
			if tt.spec.Permanent() && got.Date != nil {
				t.Error("для Permanent дата утилизации должна отсутствовать")
			}
		})
	}
}
