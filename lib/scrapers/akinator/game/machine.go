package game

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"akiclient/lib/gamedata"
	"akiclient/lib/scrapers/akinator/core"
	"akiclient/lib/scrapers/akinator/extract"
	"akiclient/lib/scrapers/akinator/region"
	"akiclient/lib/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("scrapers/akinator/game")

var meter = otel.Meter("scrapers/akinator/game")
var finishedCounter, _ = meter.Int64Counter(
	"akiclient.games.finished",
	metric.WithDescription("games that reached a win or a loss"),
)

const (
	report_extract_proposition = "extract.proposition"
	report_extract_win_summary = "extract.win-summary"
	report_status_inferred     = "reply.status-inferred"
	report_no_more_candidates  = "exclude.no-more-candidates"
)

// Machine is the session state machine shared by the blocking and the
// suspending front-ends. It is not safe for concurrent use, every field
// change happens on a copy that is only committed once a reply was fully
// understood, so a failing call leaves the session as it was.
type Machine struct {
	resolver region.Resolver
	tel      telemetry.API
	st       Snapshot
}

func NewMachine(resolver region.Resolver, tel telemetry.API) *Machine {
	if tel == nil {
		tel = telemetry.NopAPI{}
	}
	return &Machine{
		resolver: resolver,
		tel:      telemetry.NewScopedAPI("game", tel),
	}
}

func (m *Machine) Snapshot() Snapshot {
	return m.st.clone()
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// send detaches from the caller's cancellation, an operation either
// completes or fails by itself (the transport timeout bounds it).
func (m *Machine) send(ctx context.Context, t core.Transport, req core.Request) (*core.Response, error) {
	return t.Send(context.WithoutCancel(ctx), req)
}

func (m *Machine) endpoint(path string) string {
	return m.st.RegionURI + path
}

func (m *Machine) form() map[string]string {
	return map[string]string{
		"step":        strconv.Itoa(m.st.Step),
		"progression": m.st.Progress,
		"sid":         strconv.Itoa(m.st.Theme.ID()),
		"cm":          strconv.FormatBool(m.st.ChildMode),
		"session":     m.st.SessionToken,
		"signature":   m.st.SignatureToken,
	}
}

func (m *Machine) usable() error {
	if !m.st.Started {
		return ErrNotStarted
	}
	if m.st.Expired {
		return ErrSessionExpired
	}
	return nil
}

func (m *Machine) commit(next Snapshot) {
	if m.st.Outcome == OutcomeNone && next.Outcome != OutcomeNone {
		finishedCounter.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("outcome", next.Outcome.String()),
			attribute.String("region", next.Language),
		))
		m.tel.ReportCount("games.finished."+next.Outcome.String(), 1)
	}
	m.st = next
}

// Start resolves the language, opens a game and reads its tokens and first
// question.
func (m *Machine) Start(ctx context.Context, t core.Transport, language string, childMode bool) error {
	ctx, span := tracer.Start(ctx, "machine:Start")
	defer span.End()
	span.SetAttributes(attribute.String("language", language), attribute.Bool("child_mode", childMode))

	if m.st.Started {
		return fail(span, ErrAlreadyStarted)
	}

	reg, err := m.resolver.Resolve(ctx, t, language)
	if err != nil {
		return fail(span, err)
	}

	req := core.Request{
		Method:   http.MethodPost,
		Endpoint: reg.URI + "/game",
		Form: map[string]string{
			"sid": strconv.Itoa(reg.Theme.ID()),
			"cm":  strconv.FormatBool(childMode),
		},
	}
	res, err := m.send(ctx, t, req)
	if err != nil {
		return fail(span, err)
	}
	if !res.OK() {
		return fail(span, core.StatusError(req, res))
	}

	fields, err := extract.Init(res.Text())
	if err != nil {
		return fail(span, err)
	}
	if fields.Proposition == "" {
		m.tel.ReportWarning(report_extract_proposition, "missing from game page")
	}

	m.commit(Snapshot{
		Started:            true,
		RegionURI:          reg.URI,
		Language:           reg.Code,
		Theme:              reg.Theme,
		ChildMode:          childMode,
		SessionToken:       fields.Session,
		SignatureToken:     fields.Signature,
		ClientToken:        fields.Identifiant,
		Step:               0,
		Progress:           InitialProgress,
		Mood:               MoodStart,
		Prompt:             fields.Question,
		PropositionMessage: fields.Proposition,
	})
	return nil
}

// Answer submits an answer to the current question. While a guess awaits
// resolution only yes and no are accepted, they confirm and reject the
// guess respectively.
func (m *Machine) Answer(ctx context.Context, t core.Transport, answer gamedata.Answer) error {
	err := gamedata.CheckAnswer(answer)
	if err != nil {
		return err
	}
	err = m.usable()
	if err != nil {
		return err
	}

	if m.st.AwaitingResolution {
		switch answer {
		case gamedata.AnswerYes:
			return m.Choose(ctx, t)
		case gamedata.AnswerNo:
			return m.Exclude(ctx, t)
		}
		return invalidChoice(answer.String(), "only yes or no can be answered when a guess was proposed")
	}

	ctx, span := tracer.Start(ctx, "machine:Answer")
	defer span.End()
	span.SetAttributes(attribute.Int("answer", int(answer)), attribute.Int("step", m.st.Step))

	if m.st.Terminal {
		return fail(span, invalidChoice(answer.String(), "the game is over"))
	}

	form := m.form()
	form["answer"] = strconv.Itoa(int(answer))
	form["step_last_proposition"] = ""
	if m.st.HasProposed {
		form["step_last_proposition"] = strconv.Itoa(m.st.StepAtLastProposal)
	}

	next, err := m.step(ctx, t, "/answer", form, extract.Strict, m.st.clone())
	if err != nil {
		return fail(span, err)
	}
	m.commit(next)
	return nil
}

// Back cancels the previous answer.
func (m *Machine) Back(ctx context.Context, t core.Transport) error {
	err := m.usable()
	if err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "machine:Back")
	defer span.End()

	if m.st.Terminal {
		return fail(span, invalidChoice("back", "the game is over"))
	}
	if m.st.Step <= 0 {
		return fail(span, ErrCantGoBackAnyFurther)
	}

	// the guess is kept, a soundlike reply can still bring it back
	next := m.st.clone()
	next.AwaitingResolution = false

	next, err = m.step(ctx, t, "/cancel_answer", m.form(), extract.Strict, next)
	if err != nil {
		return fail(span, err)
	}
	m.commit(next)
	return nil
}

// Exclude rejects the proposed guess. On a terminal session, a confirmed
// win included, it resolves to the loss without contacting the service. A
// reply the service can only send when it has nothing left to propose ends
// the game as a loss.
func (m *Machine) Exclude(ctx context.Context, t core.Transport) error {
	err := m.usable()
	if err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "machine:Exclude")
	defer span.End()

	if !m.st.AwaitingResolution {
		return fail(span, invalidChoice("exclude", "you can only exclude when a guess was proposed"))
	}
	if m.st.Terminal {
		m.ResolveDefeat()
		return nil
	}

	next := m.st.clone()
	next.AwaitingResolution = false
	next.Proposal = nil

	next, err = m.step(ctx, t, "/exclude", m.form(), extract.NoMoreCandidates, next)
	if errors.Is(err, extract.ErrNoMoreCandidates) {
		m.tel.ReportWarning(report_no_more_candidates, err)
		span.AddEvent("no more candidates")
		m.ResolveDefeat()
		return nil
	}
	if err != nil {
		return fail(span, err)
	}
	m.commit(next)
	return nil
}

// Choose confirms the proposed guess and ends the game as a win.
func (m *Machine) Choose(ctx context.Context, t core.Transport) error {
	err := m.usable()
	if err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "machine:Choose")
	defer span.End()

	if !m.st.AwaitingResolution || m.st.Proposal == nil {
		return fail(span, invalidChoice("choose", "you can only choose when a guess was proposed"))
	}
	if m.st.Outcome == OutcomeWin {
		return fail(span, invalidChoice("choose", "the guess was already confirmed"))
	}

	proposal := m.st.Proposal
	req := core.Request{
		Method:          http.MethodPost,
		Endpoint:        m.endpoint("/choice"),
		FollowRedirects: true,
		Form: map[string]string{
			"step":        strconv.Itoa(m.st.Step),
			"sid":         strconv.Itoa(m.st.Theme.ID()),
			"session":     m.st.SessionToken,
			"signature":   m.st.SignatureToken,
			"identifiant": m.st.ClientToken,
			"pid":         proposal.Id,
			"charac_name": proposal.Name,
			"charac_desc": proposal.Description,
			"pflag_photo": proposal.FlagPhoto,
		},
	}
	res, err := m.send(ctx, t, req)
	if err != nil {
		return fail(span, err)
	}
	if !res.OK() {
		return fail(span, core.StatusError(req, res))
	}

	next := m.st.clone()
	next.Terminal = true
	next.AwaitingResolution = true
	next.Outcome = OutcomeWin
	next.Mood = MoodWin
	next.Progress = FinishedProgress
	next.Proposal.Id = ""

	summary, skipped, ok := extract.ChoiceResult(res.Text())
	if ok {
		next.Prompt = summary.String()
	} else {
		m.tel.ReportWarning(report_extract_win_summary, skipped)
	}

	m.commit(next)
	return nil
}

// ResolveDefeat moves the session to the loss state without contacting
// the service.
func (m *Machine) ResolveDefeat() {
	next := m.st.clone()
	defeat(&next)
	m.commit(next)
}

func defeat(s *Snapshot) {
	s.Terminal = true
	s.AwaitingResolution = false
	s.Outcome = OutcomeLoss
	s.Mood = MoodDefeat
	s.Proposal = nil
	s.Prompt = DefeatMessage
	s.Progress = FinishedProgress
}

// step sends a step request and applies its reply on top of next.
func (m *Machine) step(
	ctx context.Context,
	t core.Transport,
	path string,
	form map[string]string,
	policy extract.Policy,
	next Snapshot,
) (Snapshot, error) {
	req := core.Request{
		Method:   http.MethodPost,
		Endpoint: m.endpoint(path),
		Form:     form,
	}
	res, err := m.send(ctx, t, req)
	if err != nil {
		return Snapshot{}, err
	}

	reply, err := extract.Step(res, req, m.st.LastStatus, policy)
	if err != nil {
		return Snapshot{}, err
	}
	if reply.StatusInferred {
		m.tel.ReportDebug(report_status_inferred, path, reply.Status)
	}

	switch {
	case reply.Status == extract.StatusTimeout:
		m.st.Expired = true
		m.st.LastStatus = reply.Status
		return Snapshot{}, ErrSessionExpired
	case reply.Status == extract.StatusSoundlike:
		next.Terminal = true
		next.AwaitingResolution = true
		if next.Proposal == nil {
			defeat(&next)
		}
	case reply.Proposal != nil:
		proposal := *reply.Proposal
		next.Proposal = &proposal
		next.AwaitingResolution = true
		// remembering where the last guess happened keeps the service from
		// proposing again right after an exclusion
		next.StepAtLastProposal = next.Step
		next.HasProposed = true
	case reply.Question != nil:
		if reply.Question.Mood != "" {
			next.Mood = reply.Question.Mood
		}
		next.Step = reply.Question.Step
		next.Progress = reply.Question.Progress
		next.Prompt = reply.Question.Prompt
	}
	next.LastStatus = reply.Status
	return next, nil
}
