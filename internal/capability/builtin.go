package capability

import "github.com/ventlogic/ventlogic-core/internal/target"

// Builtin feature IDs.
const (
	FeatureAbsoluteHumidity = "absolute_humidity"
	FeatureFanBoost         = "fan_boost"
	FeatureFilterAlert      = "filter_alert"
	FeatureCO2Level         = "co2_level"
)

// DeclareBuiltin registers the stock ventilation features.
// Called once from main before the registry is frozen.
func DeclareBuiltin(r *Registry) error {
	builtin := []Descriptor{
		{
			ID: FeatureAbsoluteHumidity,
			Templates: []ResourceTemplate{
				{Kind: KindSensor, NamePattern: "abs_humidity"},
			},
			Eligibility: Eligibility{
				Kinds: []target.Kind{target.KindFan, target.KindHumidityRemote},
			},
		},
		{
			ID: FeatureFanBoost,
			Templates: []ResourceTemplate{
				{Kind: KindSwitch, NamePattern: "fan_boost"},
				{Kind: KindSensor, NamePattern: "fan_boost_remaining"},
			},
			Eligibility: Eligibility{
				Kinds: []target.Kind{target.KindFan},
			},
		},
		{
			ID: FeatureFilterAlert,
			Templates: []ResourceTemplate{
				{Kind: KindBinarySensor, NamePattern: "filter_alert"},
			},
			Eligibility: Eligibility{
				Kinds: []target.Kind{target.KindFan},
			},
		},
		{
			ID: FeatureCO2Level,
			Templates: []ResourceTemplate{
				{Kind: KindSensor, NamePattern: "co2_level"},
			},
			Eligibility: Eligibility{
				Kinds: []target.Kind{target.KindCO2Remote},
			},
		},
	}

	for _, d := range builtin {
		if err := r.Declare(d); err != nil {
			return err
		}
	}
	return nil
}
