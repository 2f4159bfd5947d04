package synth

import (
	"fmt"
	"math"
	"strconv"
)

// ----- Param ID ----- //

// ParamID identifies one controllable parameter. The ids are shared by the
// engine, the effects rack and the arpeggiator; each consumer recognizes its
// own subset.
type ParamID uint32

// Parameter identifiers.
const (
	ParamMasterVolume ParamID = iota
	ParamTempo
	ParamFXDistortionEnabled
	ParamFXDistortionDrive
	ParamFXDistortionMix
	ParamFXChorusEnabled
	ParamFXChorusRate
	ParamFXChorusDepth
	ParamFXChorusMix
	ParamFXCompEnabled
	ParamFXCompThreshold
	ParamFXCompRatio
	ParamFXDelayEnabled
	ParamFXDelayTime
	ParamFXDelayFeedback
	ParamFXDelayMix
	ParamFXReverbEnabled
	ParamFXReverbSize
	ParamFXReverbDamping
	ParamFXReverbMix
	ParamArpEnabled
	ParamArpRate
	ParamArpMode
	ParamFilterCutoff
	ParamFilterResonance
	ParamFilterMode
	ParamFilterEnvAmount
	ParamEnvAttack
	ParamEnvDecay
	ParamEnvSustain
	ParamEnvRelease
	ParamPanic

	ParamOsc1Waveform
	ParamOsc2Waveform
	ParamOscUnison
	ParamOscDetune
	ParamOscPulseWidth
	ParamOscFMAmount
	ParamOscDrift
	ParamMonoMode
	ParamLegatoMode
	ParamGlideTime
	ParamPitchBendRange
	ParamMasterTune
	ParamLFO1Rate
	ParamLFO1Depth
	ParamLFO1Waveform
	ParamLFO1TempoSync
	ParamFilterKeytrack
	ParamPitchEnvAmount

	numParams
)

// ParamKind is the value type a parameter expects.
type ParamKind int

// Param kinds.
const (
	KindFloat ParamKind = iota
	KindInt
	KindBool
)

type paramInfo struct {
	name string
	kind ParamKind
}

var params = [numParams]paramInfo{
	ParamMasterVolume:        {"master_volume", KindFloat},
	ParamTempo:               {"tempo", KindFloat},
	ParamFXDistortionEnabled: {"fx_distortion_enabled", KindBool},
	ParamFXDistortionDrive:   {"fx_distortion_drive", KindFloat},
	ParamFXDistortionMix:     {"fx_distortion_mix", KindFloat},
	ParamFXChorusEnabled:     {"fx_chorus_enabled", KindBool},
	ParamFXChorusRate:        {"fx_chorus_rate", KindFloat},
	ParamFXChorusDepth:       {"fx_chorus_depth", KindFloat},
	ParamFXChorusMix:         {"fx_chorus_mix", KindFloat},
	ParamFXCompEnabled:       {"fx_comp_enabled", KindBool},
	ParamFXCompThreshold:     {"fx_comp_threshold", KindFloat},
	ParamFXCompRatio:         {"fx_comp_ratio", KindFloat},
	ParamFXDelayEnabled:      {"fx_delay_enabled", KindBool},
	ParamFXDelayTime:         {"fx_delay_time", KindFloat},
	ParamFXDelayFeedback:     {"fx_delay_feedback", KindFloat},
	ParamFXDelayMix:          {"fx_delay_mix", KindFloat},
	ParamFXReverbEnabled:     {"fx_reverb_enabled", KindBool},
	ParamFXReverbSize:        {"fx_reverb_size", KindFloat},
	ParamFXReverbDamping:     {"fx_reverb_damping", KindFloat},
	ParamFXReverbMix:         {"fx_reverb_mix", KindFloat},
	ParamArpEnabled:          {"arp_enabled", KindBool},
	ParamArpRate:             {"arp_rate", KindFloat},
	ParamArpMode:             {"arp_mode", KindInt},
	ParamFilterCutoff:        {"filter_cutoff", KindFloat},
	ParamFilterResonance:     {"filter_resonance", KindFloat},
	ParamFilterMode:          {"filter_mode", KindInt},
	ParamFilterEnvAmount:     {"filter_env_amount", KindFloat},
	ParamEnvAttack:           {"env_attack", KindFloat},
	ParamEnvDecay:            {"env_decay", KindFloat},
	ParamEnvSustain:          {"env_sustain", KindFloat},
	ParamEnvRelease:          {"env_release", KindFloat},
	ParamPanic:               {"panic", KindBool},
	ParamOsc1Waveform:        {"osc1_waveform", KindInt},
	ParamOsc2Waveform:        {"osc2_waveform", KindInt},
	ParamOscUnison:           {"osc_unison", KindInt},
	ParamOscDetune:           {"osc_detune", KindFloat},
	ParamOscPulseWidth:       {"osc_pulse_width", KindFloat},
	ParamOscFMAmount:         {"osc_fm_amount", KindFloat},
	ParamOscDrift:            {"osc_drift", KindFloat},
	ParamMonoMode:            {"mono_mode", KindBool},
	ParamLegatoMode:          {"legato_mode", KindBool},
	ParamGlideTime:           {"glide_time", KindFloat},
	ParamPitchBendRange:      {"pitch_bend_range", KindInt},
	ParamMasterTune:          {"master_tune", KindFloat},
	ParamLFO1Rate:            {"lfo1_rate", KindFloat},
	ParamLFO1Depth:           {"lfo1_depth", KindFloat},
	ParamLFO1Waveform:        {"lfo1_waveform", KindInt},
	ParamLFO1TempoSync:       {"lfo1_tempo_sync", KindBool},
	ParamFilterKeytrack:      {"filter_keytrack", KindFloat},
	ParamPitchEnvAmount:      {"pitch_env_amount", KindFloat},
}

var paramsByName = func() map[string]ParamID {
	m := make(map[string]ParamID, numParams)
	for id, info := range params {
		m[info.name] = ParamID(id)
	}
	return m
}()

func (id ParamID) String() string {
	if id < numParams {
		return params[id].name
	}
	return fmt.Sprintf("param(%d)", uint32(id))
}

// Kind returns the value type id expects. Unknown ids report KindFloat.
func (id ParamID) Kind() ParamKind {
	if id < numParams {
		return params[id].kind
	}
	return KindFloat
}

// ParamIDFromString ...
func ParamIDFromString(name string) (ParamID, bool) {
	id, ok := paramsByName[name]
	return id, ok
}

// ----- Param Value ----- //

// ParamValue is one of FloatValue, IntValue or BoolValue.
type ParamValue interface {
	isParamValue()
}

// FloatValue ...
type FloatValue float64

// IntValue ...
type IntValue int

// BoolValue ...
type BoolValue bool

func (FloatValue) isParamValue() {}
func (IntValue) isParamValue()   {}
func (BoolValue) isParamValue()  {}

// AsFloat converts any variant: ints convert exactly and bools become 0 or 1.
func AsFloat(v ParamValue) float64 {
	switch v := v.(type) {
	case FloatValue:
		return float64(v)
	case IntValue:
		return float64(v)
	case BoolValue:
		if v {
			return 1
		}
		return 0
	}
	return 0
}

// AsInt converts any variant: floats are rounded.
func AsInt(v ParamValue) int {
	switch v := v.(type) {
	case FloatValue:
		return int(math.Round(float64(v)))
	case IntValue:
		return int(v)
	case BoolValue:
		if v {
			return 1
		}
		return 0
	}
	return 0
}

// AsBool converts any variant: a float is true when its magnitude exceeds 0.5.
func AsBool(v ParamValue) bool {
	switch v := v.(type) {
	case FloatValue:
		return math.Abs(float64(v)) > 0.5
	case IntValue:
		return v != 0
	case BoolValue:
		return bool(v)
	}
	return false
}

// ----- Param Message ----- //

// ParamMessage is one parameter change travelling to the audio thread.
type ParamMessage struct {
	ID    ParamID
	Value ParamValue
}

// FloatParam ...
func FloatParam(id ParamID, v float64) ParamMessage {
	return ParamMessage{ID: id, Value: FloatValue(v)}
}

// IntParam ...
func IntParam(id ParamID, v int) ParamMessage {
	return ParamMessage{ID: id, Value: IntValue(v)}
}

// BoolParam ...
func BoolParam(id ParamID, v bool) ParamMessage {
	return ParamMessage{ID: id, Value: BoolValue(v)}
}

func (m ParamMessage) String() string {
	return fmt.Sprintf("%v=%v", m.ID, m.Value)
}

// ParseParam builds a message from a parameter name and its textual value,
// parsed according to the parameter's kind.
func ParseParam(name string, value string) (ParamMessage, error) {
	id, ok := ParamIDFromString(name)
	if !ok {
		return ParamMessage{}, fmt.Errorf("unknown parameter %q", name)
	}
	switch id.Kind() {
	case KindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return ParamMessage{}, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		return BoolParam(id, b), nil
	case KindInt:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return ParamMessage{}, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		return IntParam(id, int(i)), nil
	default:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return ParamMessage{}, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		return FloatParam(id, f), nil
	}
}
