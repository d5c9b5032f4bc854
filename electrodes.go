package matproj

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var electrodesRoute = domain.Route{Suffix: "materials/insertion_electrodes", PrimaryKey: "battery_id"}

// VoltagePair is one voltage step between two stable intermediates.
type VoltagePair struct {
	IDCharge           string  `json:"id_charge,omitempty"`
	IDDischarge        string  `json:"id_discharge,omitempty"`
	AverageVoltage     float64 `json:"average_voltage"`
	CapacityGrav       float64 `json:"capacity_grav"`
	CapacityVol        float64 `json:"capacity_vol"`
	EnergyGrav         float64 `json:"energy_grav"`
	EnergyVol          float64 `json:"energy_vol"`
	MaxDeltaVolume     float64 `json:"max_delta_volume"`
	FracACharge        float64 `json:"fracA_charge"`
	FracADischarge     float64 `json:"fracA_discharge"`
	StabilityCharge    float64 `json:"stability_charge"`
	StabilityDischarge float64 `json:"stability_discharge"`
}

// InsertionElectrodeDoc describes an intercalation battery electrode.
type InsertionElectrodeDoc struct {
	Projection
	VoltagePair

	BatteryID        string        `json:"battery_id"`
	BatteryFormula   string        `json:"battery_formula,omitempty"`
	WorkingIon       string        `json:"working_ion,omitempty"`
	NumSteps         int           `json:"num_steps"`
	MaxVoltageStep   float64       `json:"max_voltage_step"`
	FrameworkFormula string        `json:"framework_formula,omitempty"`
	Elements         []string      `json:"elements,omitempty"`
	NElements        int           `json:"nelements,omitempty"`
	Chemsys          string        `json:"chemsys,omitempty"`
	Formula          string        `json:"formula_anonymous,omitempty"`
	MaterialIDs      []string      `json:"material_ids,omitempty"`
	HostStructure    Encoded       `json:"host_structure,omitempty"`
	AdjPairs         []VoltagePair `json:"adj_pairs,omitempty"`
	Warnings         []string      `json:"warnings,omitempty"`
	LastUpdated      time.Time     `json:"last_updated,omitempty"`
}

// ElectrodesSearch filters materials/insertion_electrodes.
type ElectrodesSearch struct {
	MaterialIDs        []string    `json:"material_ids"`
	BatteryIDs         []string    `json:"battery_ids"`
	WorkingIons        []string    `json:"working_ion"`
	Formula            []string    `json:"formula"`
	Elements           []string    `json:"elements"`
	ExcludeElements    []string    `json:"exclude_elements"`
	NumElements        *IntRange   `json:"nelements"`
	NumSteps           *IntRange   `json:"num_steps"`
	AverageVoltage     *FloatRange `json:"average_voltage"`
	MaxVoltageStep     *FloatRange `json:"max_voltage_step"`
	CapacityGrav       *FloatRange `json:"capacity_grav"`
	CapacityVol        *FloatRange `json:"capacity_vol"`
	EnergyGrav         *FloatRange `json:"energy_grav"`
	EnergyVol          *FloatRange `json:"energy_vol"`
	MaxDeltaVolume     *FloatRange `json:"max_delta_volume"`
	FracACharge        *FloatRange `json:"fracA_charge"`
	FracADischarge     *FloatRange `json:"fracA_discharge"`
	StabilityCharge    *FloatRange `json:"stability_charge"`
	StabilityDischarge *FloatRange `json:"stability_discharge"`
}

func (s ElectrodesSearch) criteria() (query.Criteria, error) {
	c := query.Criteria{}
	if err := setIDs(c, "material_ids", s.MaterialIDs); err != nil {
		return nil, err
	}
	if err := setIDs(c, "battery_ids", s.BatteryIDs); err != nil {
		return nil, err
	}
	c.SetList("working_ion", s.WorkingIons)
	c.SetList("formula", s.Formula)
	c.SetList("elements", s.Elements)
	c.SetList("exclude_elements", s.ExcludeElements)
	setIntRange(c, "nelements", s.NumElements)
	setIntRange(c, "num_steps", s.NumSteps)
	for name, r := range map[string]*FloatRange{
		"average_voltage":     s.AverageVoltage,
		"max_voltage_step":    s.MaxVoltageStep,
		"capacity_grav":       s.CapacityGrav,
		"capacity_vol":        s.CapacityVol,
		"energy_grav":         s.EnergyGrav,
		"energy_vol":          s.EnergyVol,
		"max_delta_volume":    s.MaxDeltaVolume,
		"fracA_charge":        s.FracACharge,
		"fracA_discharge":     s.FracADischarge,
		"stability_charge":    s.StabilityCharge,
		"stability_discharge": s.StabilityDischarge,
	} {
		setFloatRange(c, name, r)
	}
	return c, nil
}

// ElectrodesRester queries materials/insertion_electrodes.
type ElectrodesRester struct {
	*Rester[InsertionElectrodeDoc]
}

// Search returns the electrodes matching s.
func (r *ElectrodesRester) Search(
	ctx context.Context, s ElectrodesSearch, opts ...QueryOption,
) ([]InsertionElectrodeDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
