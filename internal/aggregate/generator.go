package aggregate

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/verte-zerg/towstat/internal/model"
)

type weighted struct {
	value  string
	weight float64
}

var sampleCodes = []weighted{
	{"111", 18}, {"111B", 3}, {"111P", 2}, {"112", 22}, {"113", 16},
	{"125", 8}, {"140", 14}, {"200", 6}, {"200P", 2}, {"300", 4},
	{"", 3}, {"999X", 2},
}

var sampleTypes = []weighted{
	{"CAR", 60}, {"VAN", 10}, {"TRUCK", 12}, {"SUV", 10},
	{"DB", 4}, {"SCOT", 2}, {"ATV", 2},
}

// Generator produces synthetic vehicle exports for demos and tests.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator returns a Generator. A zero seed uses the current time.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Generate returns count vehicles received between start and asOf. Roughly
// one in six is still on the lot and one in ten changed pickup code.
func (g *Generator) Generate(count int, start, asOf time.Time) []model.VehicleRecord {
	start = model.Date(start)
	asOf = model.Date(asOf)
	span := daysBetween(start, asOf) + 1
	if span < 1 {
		span = 1
	}
	out := make([]model.VehicleRecord, 0, count)
	for i := 0; i < count; i++ {
		received := start.AddDate(0, 0, g.rnd.Intn(span))
		v := model.VehicleRecord{
			PropertyNumber: fmt.Sprintf("P%07d", i+1),
			ReceivedOn:     received,
			PickupCode:     pick(g.rnd, sampleCodes),
			PropertyType:   pick(g.rnd, sampleTypes),
		}
		stay := int(g.rnd.ExpFloat64() * 21)
		released := received.AddDate(0, 0, stay)
		if g.rnd.Float64() >= 1.0/6 && !released.After(asOf) {
			v.ReleasedOn = released
		}
		if stay > 2 && g.rnd.Float64() < 0.1 {
			changed := received.AddDate(0, 0, 1+g.rnd.Intn(stay-1))
			if !changed.After(asOf) {
				v.OriginalPickupCode = v.PickupCode
				v.PickupCode = pick(g.rnd, sampleCodes)
				v.CodeChangedOn = changed
			}
		}
		out = append(out, v)
	}
	return out
}

func pick(rnd *rand.Rand, choices []weighted) string {
	total := 0.0
	for _, c := range choices {
		total += c.weight
	}
	r := rnd.Float64() * total
	acc := 0.0
	for _, c := range choices {
		acc += c.weight
		if r <= acc {
			return c.value
		}
	}
	return choices[len(choices)-1].value
}
