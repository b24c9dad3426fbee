package schema

import "fmt"

// InstrumentID is the numeric identifier for an instrument.
type InstrumentID uint32

// ScaleSpec defines scaling for an instrument's numeric fields.
type ScaleSpec struct {
	PriceScale    Scale
	NotionalScale Scale
}

// Instrument describes one tradable futures contract.
type Instrument struct {
	ID       InstrumentID
	Contract string
	Scale    ScaleSpec

	// MinTick is the minimum price increment, in scaled price units.
	MinTick Price

	// PriceBandLow/High bound the sane price range used by Standard and
	// Strict validation. Zero values disable the band.
	PriceBandLow  Price
	PriceBandHigh Price
}

// Registry stores instrument mappings in a compact form.
type Registry struct {
	instruments      []Instrument
	instrumentByName map[string]InstrumentID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		instrumentByName: make(map[string]InstrumentID),
	}
}

// AddInstrument registers a new instrument and returns its ID.
func (r *Registry) AddInstrument(inst Instrument) (InstrumentID, error) {
	if inst.Contract == "" {
		return 0, fmt.Errorf("instrument contract is empty")
	}
	if inst.MinTick < 0 {
		return 0, fmt.Errorf("instrument min tick is negative: %d", inst.MinTick)
	}
	if id, ok := r.instrumentByName[inst.Contract]; ok {
		return id, fmt.Errorf("instrument already exists: %s", inst.Contract)
	}
	inst.ID = InstrumentID(len(r.instruments) + 1)
	r.instruments = append(r.instruments, inst)
	r.instrumentByName[inst.Contract] = inst.ID
	return inst.ID, nil
}

// Instrument returns the instrument by ID.
func (r *Registry) Instrument(id InstrumentID) (Instrument, bool) {
	if id == 0 || int(id) > len(r.instruments) {
		return Instrument{}, false
	}
	return r.instruments[id-1], true
}

// InstrumentByContract returns the instrument for a contract month code.
func (r *Registry) InstrumentByContract(contract string) (Instrument, bool) {
	id, ok := r.instrumentByName[contract]
	if !ok {
		return Instrument{}, false
	}
	return r.Instrument(id)
}

// InstrumentCount returns the number of registered instruments.
func (r *Registry) InstrumentCount() int {
	return len(r.instruments)
}

// InstrumentAt returns the instrument by zero-based index.
func (r *Registry) InstrumentAt(index int) (Instrument, bool) {
	if index < 0 || index >= len(r.instruments) {
		return Instrument{}, false
	}
	return r.instruments[index], true
}
