// Пакет retention — расчёт сроков хранения и статусов утилизации.
// Единственное место в модуле, где вычисляются даты утилизации:
// панель мониторинга, реестр и Codex используют только эти функции.
package retention

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Unit — единица измерения срока хранения.
type Unit string

const (
	UnitDays   Unit = "Days"
	UnitWeeks  Unit = "Weeks"
	UnitMonths Unit = "Months"
	UnitYears  Unit = "Years"
	// UnitPermanent — бессрочное хранение, дата утилизации отсутствует.
	UnitPermanent Unit = "Permanent"
)

// Ошибки валидации срока хранения.
var (
	ErrEmptySpec       = errors.New("срок хранения не задан")
	ErrUnknownUnit     = errors.New("неизвестная единица срока хранения")
	ErrNonPositiveSpec = errors.New("срок хранения должен быть положительным")
)

// Spec — срок хранения: длительность с единицей измерения
// либо бессрочный маркер.
type Spec struct {
	// Value — длительность; для Permanent игнорируется
	Value int
	// Unit — единица измерения
	Unit Unit
}

// Permanent возвращает true для бессрочного срока.
func (s Spec) Permanent() bool {
	return s.Unit == UnitPermanent
}

// Validate проверяет корректность срока. Небессрочный срок
// обязан иметь положительную длительность.
func (s Spec) Validate() error {
	switch s.Unit {
	case UnitPermanent:
		return nil
	case UnitDays, UnitWeeks, UnitMonths, UnitYears:
		if s.Value <= 0 {
			return fmt.Errorf("%w: %d %s", ErrNonPositiveSpec, s.Value, s.Unit)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownUnit, s.Unit)
	}
}

// String возвращает текстовую форму срока ("5 Years", "Permanent").
func (s Spec) String() string {
	if s.Permanent() {
		return string(UnitPermanent)
	}
	return fmt.Sprintf("%d %s", s.Value, s.Unit)
}

// Parse разбирает текстовую форму срока хранения: "Permanent"
// либо "{число} {единица}". Единственное число трактуется так же,
// как множественное ("1 Year" и "1 Years" эквивалентны).
func Parse(raw string) (Spec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Spec{}, ErrEmptySpec
	}
	if strings.EqualFold(raw, string(UnitPermanent)) {
		return Spec{Unit: UnitPermanent}, nil
	}

	fields := strings.Fields(raw)
	if len(fields) != 2 {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownUnit, raw)
	}
	value, err := strconv.Atoi(fields[0])
	if err != nil {
		return Spec{}, fmt.Errorf("некорректная длительность %q: %w", fields[0], err)
	}

	unit, err := parseUnit(fields[1])
	if err != nil {
		return Spec{}, err
	}
	spec := Spec{Value: value, Unit: unit}
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

func parseUnit(raw string) (Unit, error) {
	switch strings.TrimSuffix(strings.ToLower(raw), "s") {
	case "day":
		return UnitDays, nil
	case "week":
		return UnitWeeks, nil
	case "month":
		return UnitMonths, nil
	case "year":
		return UnitYears, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, raw)
	}
}

// DisposalDate вычисляет дату утилизации от опорной даты.
// Для бессрочного срока возвращает ok=false. Календарная
// арифметика: "5 Years" от 2024-01-01 даёт ровно 2029-01-01.
func (s Spec) DisposalDate(reference time.Time) (time.Time, bool) {
	switch s.Unit {
	case UnitPermanent:
		return time.Time{}, false
	case UnitDays:
		return reference.AddDate(0, 0, s.Value), true
	case UnitWeeks:
		return reference.AddDate(0, 0, 7*s.Value), true
	case UnitMonths:
		return reference.AddDate(0, s.Value, 0), true
	default:
		return reference.AddDate(s.Value, 0, 0), true
	}
}

// Status — статус утилизации записи.
type Status string

const (
	// StatusExpired — срок хранения истёк, требуется действие.
	StatusExpired Status = "Expired"
	// StatusWarning — до утилизации меньше 30 дней.
	StatusWarning Status = "Warning"
	// StatusSecure — утилизация не скоро либо хранение бессрочное.
	StatusSecure Status = "Secure"
)

// warningWindowDays — порог предупреждения в днях до даты утилизации.
const warningWindowDays = 30

// Disposal — вычисленный статус утилизации для отображения.
type Disposal struct {
	// Status — классификация (Expired, Warning, Secure)
	Status Status
	// Label — человекочитаемая подпись статуса
	Label string
	// Date — дата утилизации; nil для бессрочного хранения
	Date *time.Time
	// DaysRemaining — дней до утилизации, отрицательно после
	// истечения; 0 для бессрочного хранения
	DaysRemaining int
}

// DaysRemaining возвращает число календарных дней от now до deadline
// с округлением вверх: остаток в 17.3 суток считается как 18 дней.
func DaysRemaining(deadline, now time.Time) int {
	diff := deadline.Sub(now)
	days := int(diff / (24 * time.Hour))
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// Classify вычисляет статус утилизации записи на момент now.
// Бессрочные записи всегда Secure независимо от возраста.
func (s Spec) Classify(reference, now time.Time) Disposal {
	date, ok := s.DisposalDate(reference)
	if !ok {
		return ClassifyDate(nil, now)
	}
	return ClassifyDate(&date, now)
}

// ClassifyDate вычисляет статус утилизации по сохранённой дате.
// Записи хранят дату утилизации с момента регистрации, поэтому
// изменение правила хранения не влияет на уже вычисленные даты.
func ClassifyDate(date *time.Time, now time.Time) Disposal {
	if date == nil {
		return Disposal{Status: StatusSecure, Label: "Permanent"}
	}

	days := DaysRemaining(*date, now)
	d := Disposal{Date: date, DaysRemaining: days}
	switch {
	case days < 0:
		d.Status = StatusExpired
		d.Label = "Action Required"
	case days < warningWindowDays:
		d.Status = StatusWarning
		d.Label = fmt.Sprintf("%d Days Left", days)
	default:
		d.Status = StatusSecure
		d.Label = fmt.Sprintf("%d Days Remaining", days)
	}
	return d
}
