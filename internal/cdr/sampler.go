package cdr

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	emptyCallerChance = 0.01
	shortcodeChance   = 0.02
	zeroCostChance    = 0.60
)

// weightedValue pairs a candidate value with its relative weight. Candidates
// are kept in slices (not maps) so draws are order-stable.
type weightedValue struct {
	value  string
	weight float64
}

// Country-code prefixes, UK-heavy. The empty prefix yields a shorter local
// number.
var phonePrefixes = []weightedValue{
	{"44", 0.85},
	{"353", 0.05},
	{"1", 0.03},
	{"49", 0.02},
	{"33", 0.02},
	{"", 0.03},
}

var currencies = []weightedValue{
	{"GBP", 0.95},
	{"USD", 0.02},
	{"EUR", 0.03},
}

// Sampler draws synthetic CDR fields from an explicitly injected random
// source. Samplers cannot fail given a valid source; there is no hidden
// process-wide randomness.
type Sampler struct {
	rng *rand.Rand
}

func NewSampler(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// Record samples one complete row. The caller side may be empty (missing
// caller_id) and the recipient side may be a shortcode.
func (s *Sampler) Record(startYear, endYear int) Record {
	return Record{
		CallerID:        s.PhoneNumber(true, false),
		Recipient:       s.PhoneNumber(false, true),
		CallDate:        s.CallDate(startYear, endYear),
		EndTime:         s.EndTime(),
		DurationSeconds: s.Duration(),
		Cost:            s.Cost(),
		Reference:       s.Reference(),
		Currency:        s.Currency(),
	}
}

// PhoneNumber mimics UK and some international formats. The allowEmpty and
// allowShortcode overrides short-circuit before prefix selection and are
// mutually exclusive per call: an empty draw wins over a shortcode draw.
func (s *Sampler) PhoneNumber(allowEmpty, allowShortcode bool) string {
	if allowEmpty && s.rng.Float64() < emptyCallerChance {
		return ""
	}
	if allowShortcode && s.rng.Float64() < shortcodeChance {
		// bare 5-6 digit service number
		return strconv.Itoa(10_000 + s.rng.Intn(990_000))
	}

	prefix := s.pick(phonePrefixes)
	if prefix == "" {
		return s.digits(7 + s.rng.Intn(4))
	}
	return prefix + s.digits(9+s.rng.Intn(4))
}

// CallDate samples a uniform day between Jan 1 of startYear and Dec 31 of
// endYear, formatted DD/MM/YYYY.
func (s *Sampler) CallDate(startYear, endYear int) string {
	start := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(endYear, time.December, 31, 0, 0, 0, 0, time.UTC)
	days := int(end.Sub(start).Hours() / 24)
	return start.AddDate(0, 0, s.rng.Intn(days+1)).Format("02/01/2006")
}

// EndTime samples a uniform 24-hour time-of-day, zero padded. It carries no
// relation to the call date or duration.
func (s *Sampler) EndTime() string {
	return fmt.Sprintf("%02d:%02d:%02d", s.rng.Intn(24), s.rng.Intn(60), s.rng.Intn(60))
}

// Duration skews towards short calls: 70% in [1,600], then 95% of the
// remainder in [601,3600], else [3601,7200].
func (s *Sampler) Duration() int {
	if s.rng.Float64() < 0.7 {
		return 1 + s.rng.Intn(600)
	}
	if s.rng.Float64() < 0.95 {
		return 601 + s.rng.Intn(3000)
	}
	return 3601 + s.rng.Intn(3600)
}

// Cost is "0" 60% of the time. Otherwise it is uniform in [0.001, 5.0]
// rounded to 3 places; values that round to a whole number occasionally
// render as a bare integer, everything else keeps exactly 3 decimals.
func (s *Sampler) Cost() string {
	if s.rng.Float64() < zeroCostChance {
		return "0"
	}
	v := 0.001 + s.rng.Float64()*(5.0-0.001)
	v = math.Round(v*1000) / 1000
	if v == math.Trunc(v) && s.rng.Float64() < 0.2 {
		return strconv.Itoa(int(v))
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// Reference is a random 128-bit identifier as 32 uppercase hex characters.
// Collisions are negligible at any realistic row count.
func (s *Sampler) Reference() string {
	u, err := uuid.NewRandomFromReader(s.rng)
	if err != nil {
		// math/rand sources cannot fail a read
		panic("cdr: random source failed: " + err.Error())
	}
	return strings.ToUpper(hex.EncodeToString(u[:]))
}

// Currency is predominantly GBP.
func (s *Sampler) Currency() string {
	return s.pick(currencies)
}

func (s *Sampler) digits(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + s.rng.Intn(10)))
	}
	return b.String()
}

// pick draws one value proportionally to weight.
func (s *Sampler) pick(choices []weightedValue) string {
	var total float64
	for _, c := range choices {
		total += c.weight
	}
	r := s.rng.Float64() * total
	for _, c := range choices {
		r -= c.weight
		if r < 0 {
			return c.value
		}
	}
	return choices[len(choices)-1].value
}
