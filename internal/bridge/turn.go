package bridge

import (
	"context"
	"time"

	"github.com/voxteller/voxteller/internal/conversation"
	"github.com/voxteller/voxteller/internal/observe"
	"github.com/voxteller/voxteller/pkg/collab/answer"
	"github.com/voxteller/voxteller/pkg/collab/speech"
)

// apologyText is spoken whenever answer generation or synthesis fails, so
// the caller always hears a response.
const apologyText = "I'm sorry, I'm having trouble helping with that right now. Please try again."

// pipeline turns finalized utterances into spoken replies. Each respond
// call is one independent turn task; multiple may run concurrently for the
// same call, and replies may play out of speaking order.
type pipeline struct {
	tracker *conversation.Tracker
	answer  answer.Provider
	synth   speech.Synthesizer
	metrics *observe.Metrics
}

// respond generates, synthesizes, and plays the reply for one finalized
// utterance. It never fails: every degradation path still pushes a
// play_audio to the telephony leg.
func (p *pipeline) respond(ctx context.Context, leg TelephonyLeg, callID, utterance string) {
	log := observe.Logger(ctx).With("call_id", callID)
	start := time.Now()

	reply, err := p.generate(ctx, callID, utterance)
	if err != nil {
		log.Warn("answer generation failed, substituting apology", "error", err)
		reply = apologyText
	}

	audio := p.synthesize(ctx, &reply)
	p.tracker.Append(callID, conversation.RoleAssistant, reply)

	if err := leg.WriteControl(ctx, Control{
		Type:   ControlPlayAudio,
		Audio:  audio.Content,
		Text:   reply,
		Format: audio.Format,
	}); err != nil {
		log.Warn("play_audio push failed", "error", err)
	}

	if p.metrics != nil {
		p.metrics.TurnDuration.Record(ctx, time.Since(start).Seconds())
	}
}

// generate asks the answer collaborator for a reply to utterance given the
// transcript so far.
func (p *pipeline) generate(ctx context.Context, callID, utterance string) (string, error) {
	var history []answer.Exchange
	if msgs, ok := p.tracker.History(callID); ok {
		history = make([]answer.Exchange, len(msgs))
		for i, m := range msgs {
			history[i] = answer.Exchange{Role: answer.Role(m.Role), Text: m.Text}
		}
	}

	start := time.Now()
	reply, err := p.answer.Answer(ctx, utterance, history)
	if p.metrics != nil {
		p.metrics.AnswerDuration.Record(ctx, time.Since(start).Seconds())
		p.metrics.RecordCollaboratorRequest(ctx, "answer", statusOf(err))
	}
	return reply, err
}

// synthesize converts *reply to audio. On failure it substitutes the
// apology (updating *reply) and tries once more; if that also fails the
// returned audio is empty and play_audio carries text only.
func (p *pipeline) synthesize(ctx context.Context, reply *string) speech.Audio {
	audio, err := p.trySynth(ctx, *reply)
	if err == nil {
		return audio
	}
	observe.Logger(ctx).Warn("synthesis failed", "error", err)

	if *reply != apologyText {
		*reply = apologyText
		if audio, err = p.trySynth(ctx, apologyText); err == nil {
			return audio
		}
		observe.Logger(ctx).Warn("apology synthesis failed, playing text only", "error", err)
	}
	return speech.Audio{}
}

func (p *pipeline) trySynth(ctx context.Context, text string) (speech.Audio, error) {
	start := time.Now()
	audio, err := p.synth.Synthesize(ctx, text)
	if p.metrics != nil {
		p.metrics.SynthesisDuration.Record(ctx, time.Since(start).Seconds())
		p.metrics.RecordCollaboratorRequest(ctx, "synthesis", statusOf(err))
	}
	return audio, err
}

// speak synthesizes and plays a bridge-originated message (greeting,
// farewell) and records it in the transcript. Synthesis failure degrades
// to a text-only play_audio.
func (p *pipeline) speak(ctx context.Context, leg TelephonyLeg, callID, text string) {
	audio, err := p.trySynth(ctx, text)
	if err != nil {
		observe.Logger(ctx).Warn("synthesis failed for bridge message",
			"call_id", callID, "error", err)
		audio = speech.Audio{}
	}
	p.tracker.Append(callID, conversation.RoleAssistant, text)

	if err := leg.WriteControl(ctx, Control{
		Type:   ControlPlayAudio,
		Audio:  audio.Content,
		Text:   text,
		Format: audio.Format,
	}); err != nil {
		observe.Logger(ctx).Warn("play_audio push failed",
			"call_id", callID, "error", err)
	}
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
