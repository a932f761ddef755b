package seeder

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DataGenerator produces the synthetic values of every generated row. All
// draws come from one seeded source so a run can be reproduced from its seed.
type DataGenerator struct {
	rand *rand.Rand
	seed int64
}

// NewDataGenerator returns a generator seeded with seed, or with the current
// time when seed is 0.
func NewDataGenerator(seed int64) *DataGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DataGenerator{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

func (g *DataGenerator) Seed() int64 {
	return g.seed
}

// IntRange returns a uniform integer in [min, max].
func (g *DataGenerator) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	return min + g.rand.Intn(max-min+1)
}

// Int64Range returns a uniform integer in [min, max].
func (g *DataGenerator) Int64Range(min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + g.rand.Int63n(max-min+1)
}

// Pick returns a uniform element of ids. ids must not be empty.
func (g *DataGenerator) Pick(ids []string) string {
	return ids[g.rand.Intn(len(ids))]
}

// Chance reports true with probability p.
func (g *DataGenerator) Chance(p float64) bool {
	return g.rand.Float64() < p
}

// TimeBetween returns a uniform instant in [from, to].
func (g *DataGenerator) TimeBetween(from, to time.Time) time.Time {
	span := to.Sub(from)
	if span <= 0 {
		return from
	}
	return from.Add(time.Duration(g.rand.Int63n(int64(span) + 1)))
}

// PastDate returns a calendar day within the given number of years before now.
func (g *DataGenerator) PastDate(now time.Time, years int) time.Time {
	return dateOf(g.TimeBetween(now.AddDate(-years, 0, 0), now))
}

// BirthDateByAge returns a birth date for someone aged between minAge and
// maxAge (inclusive) at now.
func (g *DataGenerator) BirthDateByAge(now time.Time, minAge, maxAge int) time.Time {
	from := now.AddDate(-maxAge-1, 0, 1)
	to := now.AddDate(-minAge, 0, 0)
	return dateOf(g.TimeBetween(from, to))
}

// BirthDateByYear returns a birth date whose year lies in [minYear, maxYear].
func (g *DataGenerator) BirthDateByYear(minYear, maxYear int) time.Time {
	from := time.Date(minYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(maxYear, time.December, 31, 0, 0, 0, 0, time.UTC)
	return dateOf(g.TimeBetween(from, to))
}

var (
	firstNames = []string{
		"Ana", "Carlos", "Lucia", "Jose", "Maria", "Diego", "Sofia", "Luis", "Valeria", "Jorge",
		"Alice", "John", "Grace", "Henry", "Diana", "Frank", "Elena", "Pablo", "Andrea", "Miguel",
	}
	lastNames = []string{
		"Lopez", "Garcia", "Martinez", "Rodriguez", "Perez", "Gonzalez", "Hernandez", "Ramirez",
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Miller", "Davis", "Morales",
	}
	companySuffixes = []string{"Group", "LLC", "Inc", "and Sons", "Editores", "Press", "Publishing"}
	countries       = []string{
		"Guatemala", "Mexico", "El Salvador", "Honduras", "Costa Rica", "Colombia", "Argentina",
		"Chile", "Peru", "Spain", "France", "Germany", "United Kingdom", "Ireland", "Italy",
		"Russia", "Japan", "United States of America", "Canada", "Brazil", "Nigeria", "India",
	}
)

func (g *DataGenerator) FirstName() string {
	return firstNames[g.rand.Intn(len(firstNames))]
}

func (g *DataGenerator) LastName() string {
	return lastNames[g.rand.Intn(len(lastNames))]
}

func (g *DataGenerator) PersonName() string {
	return g.FirstName() + " " + g.LastName()
}

// CompanyName follows the usual "<Name> <Suffix>", "<Name> - <Name>" and
// "<Name>, <Name> and <Name>" shapes of publisher names.
func (g *DataGenerator) CompanyName() string {
	switch g.rand.Intn(3) {
	case 0:
		return g.LastName() + " " + companySuffixes[g.rand.Intn(len(companySuffixes))]
	case 1:
		return g.LastName() + " - " + g.LastName()
	default:
		return fmt.Sprintf("%s, %s and %s", g.LastName(), g.LastName(), g.LastName())
	}
}

func (g *DataGenerator) Country() string {
	return countries[g.rand.Intn(len(countries))]
}

// BookCode returns a shelf code of three digits and three capital letters,
// e.g. "042-QKD".
func (g *DataGenerator) BookCode() string {
	var letters strings.Builder
	for i := 0; i < 3; i++ {
		letters.WriteByte(byte('A' + g.rand.Intn(26)))
	}
	return fmt.Sprintf("%03d-%s", g.rand.Intn(1000), letters.String())
}

// ISBN returns a 13 digit ISBN with the 978 prefix and a valid check digit.
func (g *DataGenerator) ISBN() string {
	digits := make([]byte, 0, 13)
	digits = append(digits, '9', '7', '8')
	for i := 0; i < 9; i++ {
		digits = append(digits, byte('0'+g.rand.Intn(10)))
	}
	return string(append(digits, isbnCheckDigit(digits)))
}

func isbnCheckDigit(first12 []byte) byte {
	sum := 0
	for i, d := range first12 {
		n := int(d - '0')
		if i%2 == 1 {
			n *= 3
		}
		sum += n
	}
	return byte('0' + (10-sum%10)%10)
}

// Price returns a uniform amount in [min, max] with two decimal places.
func (g *DataGenerator) Price(min, max decimal.Decimal) decimal.Decimal {
	lo := min.Shift(2).IntPart()
	hi := max.Shift(2).IntPart()
	return decimal.New(g.Int64Range(lo, hi), -2)
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
