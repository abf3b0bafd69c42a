package plan

// AudioPlans is the fixed diagnostic library for the "audio" domain,
// keyed by the Intent.Name values DefaultIntents classifies statements
// into. Each plan is a hand-authored, fixed ordered sequence of
// commands (§4.9's Plan Mode), not something inferred at runtime.
var AudioPlans = map[string]Plan{
	"volume-too-low":       volumeTooLowPlan(),
	"no-sound-from-device": noSoundFromDevicePlan(),
	"mic-not-detected":     micNotDetectedPlan(),
}

// Lookup returns the named plan and whether it exists.
func Lookup(name string) (Plan, bool) {
	p, ok := AudioPlans[name]
	return p, ok
}

func volumeTooLowPlan() Plan {
	return NewBuilder("volume-too-low", "audio").
		Description("sink volume is low or muted").
		AddStep(NewStepBuilder("list-sinks", "pactl").
			Args("list", "sinks").
			Description("enumerate playback sinks and their current volume/mute state").
			Build()).
		AddStep(NewStepBuilder("default-sink", "pactl").
			Args("get-default-sink").
			Description("identify the sink volume-too-low actually affects").
			DependsOn("list-sinks").
			Build()).
		AddStep(NewStepBuilder("raise-volume", "pactl").
			Args("set-sink-volume", "@DEFAULT_SINK@", "100%").
			Description("raise the default sink to full volume").
			DependsOn("default-sink").
			Build()).
		AddStep(NewStepBuilder("unmute", "pactl").
			Args("set-sink-mute", "@DEFAULT_SINK@", "0").
			Description("clear any mute flag left on the default sink").
			DependsOn("raise-volume").
			Build()).
		AddStep(NewStepBuilder("confirm", "pactl").
			Args("get-sink-volume", "@DEFAULT_SINK@").
			Description("confirm the new volume took effect").
			DependsOn("unmute").
			Build()).
		Build()
}

func noSoundFromDevicePlan() Plan {
	return NewBuilder("no-sound-from-device", "audio").
		Description("no audible output on any speaker or sink").
		AddStep(NewStepBuilder("list-cards", "aplay").
			Args("-l").
			Description("enumerate playback hardware visible to ALSA").
			Build()).
		AddStep(NewStepBuilder("list-sinks", "pactl").
			Args("list", "short", "sinks").
			Description("enumerate PulseAudio/PipeWire sinks").
			DependsOn("list-cards").
			Build()).
		AddStep(NewStepBuilder("filter-suspended", "grep").
			Args("-i", "suspended").
			Description("narrow to sinks PulseAudio has suspended").
			DependsOn("list-sinks").
			Build()).
		AddStep(NewStepBuilder("restart-sink", "pactl").
			Args("suspend-sink", "@DEFAULT_SINK@", "0").
			Description("resume the default sink if it was suspended").
			DependsOn("filter-suspended").
			Build()).
		AddStep(NewStepBuilder("test-tone", "speaker-test").
			Args("-c", "2", "-t", "sine", "-l", "1").
			Description("emit a short test tone to confirm audible output").
			DependsOn("restart-sink").
			Build()).
		Build()
}

func micNotDetectedPlan() Plan {
	return NewBuilder("mic-not-detected", "audio").
		Description("microphone input is missing or not recognized").
		AddStep(NewStepBuilder("list-capture-cards", "arecord").
			Args("-l").
			Description("enumerate capture hardware visible to ALSA").
			Build()).
		AddStep(NewStepBuilder("list-sources", "pactl").
			Args("list", "short", "sources").
			Description("enumerate PulseAudio/PipeWire sources").
			DependsOn("list-capture-cards").
			Build()).
		AddStep(NewStepBuilder("filter-input", "grep").
			Args("-iv", "monitor").
			Description("drop monitor-of-sink sources, keep real input devices").
			DependsOn("list-sources").
			Build()).
		AddStep(NewStepBuilder("default-source", "pactl").
			Args("get-default-source").
			Description("identify which source should be receiving mic input").
			DependsOn("filter-input").
			Build()).
		AddStep(NewStepBuilder("unmute-source", "pactl").
			Args("set-source-mute", "@DEFAULT_SOURCE@", "0").
			Description("clear any mute flag on the default source").
			DependsOn("default-source").
			Build()).
		Build()
}
