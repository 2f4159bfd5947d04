// Package preset reads and writes preset documents and turns them into
// parameter messages.
package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jinjor/desktop-synth/src/synth"
)

// SchemaVersion is the document version written by this package.
const SchemaVersion = 1

// ----- Document ----- //

// Preset ...
type Preset struct {
	Version  int      `json:"version"`
	Metadata Metadata `json:"metadata"`
	Values   Values   `json:"values"`
}

// Metadata ...
type Metadata struct {
	Name        string `json:"name"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// Values ...
type Values struct {
	Tempo           float64 `json:"tempo"`
	MasterVolume    float64 `json:"masterVolume"`
	FilterCutoff    float64 `json:"filterCutoff"`
	FilterResonance float64 `json:"filterResonance"`
	FilterMode      int     `json:"filterMode"`
	FilterEnvAmount float64 `json:"filterEnvAmount"`
	EnvAttack       float64 `json:"envAttack"`
	EnvDecay        float64 `json:"envDecay"`
	EnvSustain      float64 `json:"envSustain"`
	EnvRelease      float64 `json:"envRelease"`
	FX              FX      `json:"fx"`
	Arp             Arp     `json:"arp"`
}

// FX ...
type FX struct {
	Distortion Distortion `json:"distortion"`
	Chorus     Chorus     `json:"chorus"`
	Delay      Delay      `json:"delay"`
	Reverb     Reverb     `json:"reverb"`
	Compressor Compressor `json:"compressor"`
}

// Distortion ...
type Distortion struct {
	Enabled bool    `json:"enabled"`
	Drive   float64 `json:"drive"`
	Mix     float64 `json:"mix"`
}

// Chorus ...
type Chorus struct {
	Enabled bool    `json:"enabled"`
	Rate    float64 `json:"rate"`
	Depth   float64 `json:"depth"`
	Mix     float64 `json:"mix"`
}

// Delay ...
type Delay struct {
	Enabled  bool    `json:"enabled"`
	Time     float64 `json:"time"`
	Feedback float64 `json:"feedback"`
	Mix      float64 `json:"mix"`
}

// Reverb ...
type Reverb struct {
	Enabled bool    `json:"enabled"`
	Size    float64 `json:"size"`
	Damping float64 `json:"damping"`
	Mix     float64 `json:"mix"`
}

// Compressor ...
type Compressor struct {
	Enabled   bool    `json:"enabled"`
	Threshold float64 `json:"threshold"`
	Ratio     float64 `json:"ratio"`
}

// Arp ...
type Arp struct {
	Enabled        bool    `json:"enabled"`
	RateMultiplier float64 `json:"rateMultiplier"`
	Mode           int     `json:"mode"`
}

// Default returns the init patch.
func Default() *Preset {
	return &Preset{
		Version: SchemaVersion,
		Metadata: Metadata{
			Name:        "Init Patch",
			Author:      "Anonymous",
			Category:    "Utility",
			Description: "Default initialized preset",
		},
		Values: Values{
			Tempo:           120,
			MasterVolume:    0.7,
			FilterCutoff:    8000,
			FilterResonance: 0.3,
			EnvAttack:       0.01,
			EnvDecay:        0.1,
			EnvSustain:      0.7,
			EnvRelease:      0.3,
			FX: FX{
				Distortion: Distortion{Drive: 5, Mix: 0.5},
				Chorus:     Chorus{Rate: 0.5, Depth: 10, Mix: 0.5},
				Delay:      Delay{Time: 0.3, Feedback: 0.4, Mix: 0.3},
				Reverb:     Reverb{Size: 0.5, Damping: 0.5, Mix: 0.3},
				Compressor: Compressor{Threshold: 0.7, Ratio: 4},
			},
			Arp: Arp{RateMultiplier: 1},
		},
	}
}

// Parse reads a document over the defaults, so missing keys keep their
// default values. The "values" object is required.
func Parse(data []byte) (*Preset, error) {
	var probe struct {
		Values json.RawMessage `json:"values"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse preset: %w", err)
	}
	if len(probe.Values) == 0 || string(probe.Values) == "null" {
		return nil, errors.New("failed to parse preset: values are missing")
	}
	p := Default()
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse preset: %w", err)
	}
	if p.Version > SchemaVersion {
		return nil, fmt.Errorf("failed to parse preset: unsupported version %d", p.Version)
	}
	return p, nil
}

// Marshal ...
func (p *Preset) Marshal() ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}

// LoadFile ...
func LoadFile(path string) (*Preset, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset: %w", err)
	}
	p, err := Parse(bytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// SaveFile ...
func (p *Preset) SaveFile(path string) error {
	bytes, err := p.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode preset: %w", err)
	}
	if err := os.WriteFile(path, append(bytes, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write preset: %w", err)
	}
	return nil
}

// ----- Flat View ----- //

type field struct {
	id   synth.ParamID
	f64  *float64
	i    *int
	flag *bool
}

func (p *Preset) fields() []field {
	v := &p.Values
	fx := &v.FX
	return []field{
		{id: synth.ParamTempo, f64: &v.Tempo},
		{id: synth.ParamMasterVolume, f64: &v.MasterVolume},
		{id: synth.ParamFilterCutoff, f64: &v.FilterCutoff},
		{id: synth.ParamFilterResonance, f64: &v.FilterResonance},
		{id: synth.ParamFilterMode, i: &v.FilterMode},
		{id: synth.ParamFilterEnvAmount, f64: &v.FilterEnvAmount},
		{id: synth.ParamEnvAttack, f64: &v.EnvAttack},
		{id: synth.ParamEnvDecay, f64: &v.EnvDecay},
		{id: synth.ParamEnvSustain, f64: &v.EnvSustain},
		{id: synth.ParamEnvRelease, f64: &v.EnvRelease},
		{id: synth.ParamFXDistortionEnabled, flag: &fx.Distortion.Enabled},
		{id: synth.ParamFXDistortionDrive, f64: &fx.Distortion.Drive},
		{id: synth.ParamFXDistortionMix, f64: &fx.Distortion.Mix},
		{id: synth.ParamFXChorusEnabled, flag: &fx.Chorus.Enabled},
		{id: synth.ParamFXChorusRate, f64: &fx.Chorus.Rate},
		{id: synth.ParamFXChorusDepth, f64: &fx.Chorus.Depth},
		{id: synth.ParamFXChorusMix, f64: &fx.Chorus.Mix},
		{id: synth.ParamFXDelayEnabled, flag: &fx.Delay.Enabled},
		{id: synth.ParamFXDelayTime, f64: &fx.Delay.Time},
		{id: synth.ParamFXDelayFeedback, f64: &fx.Delay.Feedback},
		{id: synth.ParamFXDelayMix, f64: &fx.Delay.Mix},
		{id: synth.ParamFXReverbEnabled, flag: &fx.Reverb.Enabled},
		{id: synth.ParamFXReverbSize, f64: &fx.Reverb.Size},
		{id: synth.ParamFXReverbDamping, f64: &fx.Reverb.Damping},
		{id: synth.ParamFXReverbMix, f64: &fx.Reverb.Mix},
		{id: synth.ParamFXCompEnabled, flag: &fx.Compressor.Enabled},
		{id: synth.ParamFXCompThreshold, f64: &fx.Compressor.Threshold},
		{id: synth.ParamFXCompRatio, f64: &fx.Compressor.Ratio},
		{id: synth.ParamArpEnabled, flag: &v.Arp.Enabled},
		{id: synth.ParamArpRate, f64: &v.Arp.RateMultiplier},
		{id: synth.ParamArpMode, i: &v.Arp.Mode},
	}
}

func (f field) value() synth.ParamValue {
	switch {
	case f.f64 != nil:
		return synth.FloatValue(*f.f64)
	case f.i != nil:
		return synth.IntValue(*f.i)
	default:
		return synth.BoolValue(*f.flag)
	}
}

func (f field) set(v synth.ParamValue) {
	switch {
	case f.f64 != nil:
		*f.f64 = synth.AsFloat(v)
	case f.i != nil:
		*f.i = synth.AsInt(v)
	default:
		*f.flag = synth.AsBool(v)
	}
}

func (p *Preset) find(name string) (field, bool) {
	id, ok := synth.ParamIDFromString(name)
	if !ok {
		return field{}, false
	}
	for _, f := range p.fields() {
		if f.id == id {
			return f, true
		}
	}
	return field{}, false
}

// Get looks a value up by parameter name.
func (p *Preset) Get(name string) (synth.ParamValue, bool) {
	f, ok := p.find(name)
	if !ok {
		return nil, false
	}
	return f.value(), true
}

// Set stores a value by parameter name, converted to the field's type.
// Parameters that presets do not store are an error.
func (p *Preset) Set(name string, v synth.ParamValue) error {
	f, ok := p.find(name)
	if !ok {
		return fmt.Errorf("%q is not stored in presets", name)
	}
	f.set(v)
	return nil
}

// Names lists the parameter names a preset stores.
func (p *Preset) Names() []string {
	fields := p.fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.id.String()
	}
	return names
}

// Messages returns one message per stored value.
func (p *Preset) Messages() []synth.ParamMessage {
	fields := p.fields()
	messages := make([]synth.ParamMessage, len(fields))
	for i, f := range fields {
		messages[i] = synth.ParamMessage{ID: f.id, Value: f.value()}
	}
	return messages
}

// Clone ...
func (p *Preset) Clone() *Preset {
	c := *p
	return &c
}
