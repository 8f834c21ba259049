package game

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"akiclient/lib/gamedata"
	"akiclient/lib/scrapers/akinator/core"
	"akiclient/lib/scrapers/akinator/extract"
	"akiclient/lib/scrapers/akinator/region"
	"akiclient/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func newMachine(tel *testutil.RecordingAPI) *Machine {
	resolver := region.Resolver{Domain: "example-service.com"}
	if tel == nil {
		return NewMachine(resolver, nil)
	}
	return NewMachine(resolver, tel)
}

func started(t *testing.T, transport *testutil.FakeTransport) *Machine {
	m := newMachine(nil)
	transport.On("/game", testutil.HTML(testutil.InitPage))
	require.NoError(t, m.Start(ctx, transport, "en", false))
	return m
}

// awaiting returns a machine with the guess 12345 on the table.
func awaiting(t *testing.T, transport *testutil.FakeTransport) *Machine {
	m := started(t, transport)
	transport.On("/answer",
		testutil.Question(1, "30.00000", "Is it a person?"),
		testutil.Proposal("12345", "Mario", "Italian plumber"),
	)
	require.NoError(t, m.Answer(ctx, transport, gamedata.AnswerYes))
	require.NoError(t, m.Answer(ctx, transport, gamedata.AnswerYes))
	require.True(t, m.Snapshot().AwaitingResolution)
	return m
}

func TestStart(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := started(t, transport)
	s := m.Snapshot()

	require.True(t, s.Started)
	require.Equal(t, "https://en.example-service.com", s.RegionURI)
	require.Equal(t, gamedata.ThemeCharacters, s.Theme)
	require.Equal(t, "s1", s.SessionToken)
	require.Equal(t, "sig1", s.SignatureToken)
	require.Equal(t, "id1", s.ClientToken)
	require.Equal(t, "Is it real?", s.Prompt)
	require.Equal(t, 0, s.Step)
	require.Equal(t, 1, s.Question())
	require.Equal(t, InitialProgress, s.Progress)
	require.Equal(t, MoodStart, s.Mood)
	require.Equal(t, PhaseQuestioning, s.Phase())
	require.Equal(t, "https://en.example-service.com/assets/img/akitudes_670x1096/defi.png", s.MoodURL())

	req, ok := transport.Last("/game")
	require.True(t, ok)
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, map[string]string{"sid": "1", "cm": "false"}, req.Form)
}

func TestStartInvalidLanguage(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := newMachine(nil)

	err := m.Start(ctx, transport, "klingon", false)
	var langErr *gamedata.InvalidLanguageError
	require.True(t, errors.As(err, &langErr))
	require.Equal(t, Snapshot{}, m.Snapshot())
	require.Empty(t, transport.Requests())
}

func TestStartTwice(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := started(t, transport)
	require.ErrorIs(t, m.Start(ctx, transport, "en", false), ErrAlreadyStarted)
}

func TestStartMissingToken(t *testing.T) {
	transport := testutil.NewFakeTransport().On("/game", testutil.HTML("<html><body>nothing</body></html>"))
	m := newMachine(nil)

	err := m.Start(ctx, transport, "en", false)
	var missing *extract.MissingFieldError
	require.True(t, errors.As(err, &missing))
	require.False(t, m.Snapshot().Started)
}

func TestOperationsBeforeStart(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := newMachine(nil)

	require.ErrorIs(t, m.Answer(ctx, transport, gamedata.AnswerYes), ErrNotStarted)
	require.ErrorIs(t, m.Back(ctx, transport), ErrNotStarted)
	require.ErrorIs(t, m.Exclude(ctx, transport), ErrNotStarted)
	require.ErrorIs(t, m.Choose(ctx, transport), ErrNotStarted)
	require.Empty(t, transport.Requests())
}

func TestAnswerQuestion(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := started(t, transport)
	transport.On("/answer", testutil.Question(1, "12.50000", "Is it a person?"))

	require.NoError(t, m.Answer(ctx, transport, gamedata.AnswerProbably))
	s := m.Snapshot()
	require.Equal(t, 1, s.Step)
	require.Equal(t, "12.50000", s.Progress)
	require.Equal(t, "Is it a person?", s.Prompt)
	require.Equal(t, "serein.png", s.Mood)
	require.False(t, s.AwaitingResolution)
	require.Nil(t, s.Proposal)

	req, _ := transport.Last("/answer")
	require.Equal(t, map[string]string{
		"step":                  "0",
		"progression":           "0.00000",
		"sid":                   "1",
		"cm":                    "false",
		"session":               "s1",
		"signature":             "sig1",
		"answer":                "3",
		"step_last_proposition": "",
	}, req.Form)
}

func TestAnswerProposal(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := awaiting(t, transport)
	s := m.Snapshot()

	// a proposal leaves the question fields alone
	require.Equal(t, 1, s.Step)
	require.Equal(t, "30.00000", s.Progress)
	require.Equal(t, "Is it a person?", s.Prompt)
	require.Equal(t, 1, s.StepAtLastProposal)
	require.Equal(t, PhaseAwaitingResolution, s.Phase())
	require.Equal(t, "I think of Mario (Italian plumber)", s.String())

	diff := cmp.Diff(&Proposal{
		Id:          "12345",
		Name:        "Mario",
		Description: "Italian plumber",
		Photo:       "https://photos.example.com/12345.jpg",
		FlagPhoto:   "0",
	}, s.Proposal)
	require.Empty(t, diff)
}

func TestAnswerRejectsInvalidCode(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := started(t, transport)

	var choiceErr *gamedata.InvalidChoiceError
	require.True(t, errors.As(m.Answer(ctx, transport, gamedata.Answer(9)), &choiceErr))
	require.Equal(t, 0, transport.Calls("/answer"))
}

func TestAnswerYesWhileAwaitingChooses(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := awaiting(t, transport)
	transport.On("/choice", testutil.HTML(testutil.ChoicePage))

	require.NoError(t, m.Answer(ctx, transport, gamedata.AnswerYes))
	require.Equal(t, 2, transport.Calls("/answer"))
	require.Equal(t, 1, transport.Calls("/choice"))

	req, _ := transport.Last("/choice")
	require.True(t, req.FollowRedirects)
	require.Equal(t, "12345", req.Form["pid"])
	require.Equal(t, "Mario", req.Form["charac_name"])
	require.Equal(t, "Italian plumber", req.Form["charac_desc"])
	require.Equal(t, "id1", req.Form["identifiant"])
}

func TestAnswerNoWhileAwaitingExcludes(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := awaiting(t, transport)
	transport.On("/exclude", testutil.Question(2, "35.00000", "Is it blue?"))

	require.NoError(t, m.Answer(ctx, transport, gamedata.AnswerNo))
	require.Equal(t, 1, transport.Calls("/exclude"))

	s := m.Snapshot()
	require.False(t, s.AwaitingResolution)
	require.Nil(t, s.Proposal)
	require.Equal(t, "Is it blue?", s.Prompt)
	require.Equal(t, 2, s.Step)

	// the next answer remembers where the last guess happened
	transport.On("/answer", testutil.Question(3, "40.00000", "Is it red?"))
	require.NoError(t, m.Answer(ctx, transport, gamedata.AnswerIdk))
	req, _ := transport.Last("/answer")
	require.Equal(t, "1", req.Form["step_last_proposition"])
}

func TestAnswerOtherWhileAwaitingFails(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := awaiting(t, transport)
	before := m.Snapshot()

	var choiceErr *gamedata.InvalidChoiceError
	require.True(t, errors.As(m.Answer(ctx, transport, gamedata.AnswerProbablyNot), &choiceErr))
	require.Equal(t, before, m.Snapshot())
	require.Equal(t, 2, transport.Calls("/answer"))
}

func TestAnswerExactlyOneUpdate(t *testing.T) {
	testCases := []struct {
		name  string
		reply testutil.Reply
	}{
		{name: "question", reply: testutil.Question(1, "10.00000", "Is it an animal?")},
		{name: "proposal", reply: testutil.Proposal("7", "Pikachu", "Pokemon")},
	}

	for _, test := range testCases {
		transport := testutil.NewFakeTransport()
		m := started(t, transport)
		before := m.Snapshot()
		transport.On("/answer", test.reply)

		require.NoError(t, m.Answer(ctx, transport, gamedata.AnswerNo), test.name)
		after := m.Snapshot()

		proposed := after.AwaitingResolution && after.Proposal != nil
		questioned := after.Prompt != before.Prompt ||
			after.Step != before.Step ||
			after.Progress != before.Progress
		require.True(t, proposed != questioned, test.name)
	}
}

func TestStatusCarriedForward(t *testing.T) {
	transport := testutil.NewFakeTransport()
	tel := &testutil.RecordingAPI{}
	m := newMachine(tel)
	transport.On("/game", testutil.HTML(testutil.InitPage))
	require.NoError(t, m.Start(ctx, transport, "en", false))

	transport.On("/answer",
		testutil.Question(1, "10.00000", "Is it an animal?"),
		testutil.JSON(`{"step":"2","progression":"20.00000","question":"Does it fly?"}`),
	)
	require.NoError(t, m.Answer(ctx, transport, gamedata.AnswerNo))
	require.NoError(t, m.Answer(ctx, transport, gamedata.AnswerNo))

	s := m.Snapshot()
	require.Equal(t, extract.StatusOK, s.LastStatus)
	require.Equal(t, "Does it fly?", s.Prompt)
	require.Len(t, tel.Find("debug", report_status_inferred), 1)
}

func TestProtocolErrorLeavesStateUnchanged(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := started(t, transport)
	before := m.Snapshot()
	transport.On("/answer", testutil.JSON(`{"completion":"KO - SOMETHING NEW"}`))

	err := m.Answer(ctx, transport, gamedata.AnswerYes)
	var protoErr *extract.ProtocolError
	require.True(t, errors.As(err, &protoErr))
	require.Contains(t, protoErr.Excerpt, "KO - SOMETHING NEW")
	require.Equal(t, before, m.Snapshot())
}

func TestTransportErrorPropagates(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := started(t, transport)
	before := m.Snapshot()
	transport.On("/answer", testutil.Failure(errors.New("connection reset")))

	err := m.Answer(ctx, transport, gamedata.AnswerYes)
	var transportErr *core.TransportError
	require.True(t, errors.As(err, &transportErr))
	require.Equal(t, before, m.Snapshot())
}

func TestSessionExpired(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := started(t, transport)
	transport.On("/answer", testutil.JSON(`{"completion":"KO - TIMEOUT"}`))

	require.ErrorIs(t, m.Answer(ctx, transport, gamedata.AnswerYes), ErrSessionExpired)
	require.True(t, m.Snapshot().Expired)
	require.ErrorIs(t, m.Answer(ctx, transport, gamedata.AnswerYes), ErrSessionExpired)
	require.Equal(t, 1, transport.Calls("/answer"))
}

func TestSoundlike(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := started(t, transport)
	transport.On("/answer", testutil.JSON(`{"completion":"SOUNDLIKE"}`))

	require.NoError(t, m.Answer(ctx, transport, gamedata.AnswerYes))
	s := m.Snapshot()
	// no guess was ever made so it ends as a loss
	require.True(t, s.Terminal)
	require.Equal(t, OutcomeLoss, s.Outcome)
	require.Equal(t, DefeatMessage, s.Prompt)
}

func TestBack(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := started(t, transport)
	transport.On("/answer", testutil.Question(1, "10.00000", "Is it an animal?"))
	transport.On("/cancel_answer", testutil.Question(0, "0.00000", "Is it real?"))

	require.NoError(t, m.Answer(ctx, transport, gamedata.AnswerYes))
	require.NoError(t, m.Back(ctx, transport))

	s := m.Snapshot()
	require.Equal(t, 0, s.Step)
	require.Equal(t, "Is it real?", s.Prompt)

	req, _ := transport.Last("/cancel_answer")
	require.Equal(t, "1", req.Form["step"])
	require.Equal(t, "10.00000", req.Form["progression"])
}

func TestBackAtFirstQuestion(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := started(t, transport)
	before := m.Snapshot()

	require.ErrorIs(t, m.Back(ctx, transport), ErrCantGoBackAnyFurther)
	require.Equal(t, before, m.Snapshot())
	require.Equal(t, 0, transport.Calls("/cancel_answer"))
}

func TestChooseWithoutProposal(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := started(t, transport)
	before := m.Snapshot()

	var choiceErr *gamedata.InvalidChoiceError
	require.True(t, errors.As(m.Choose(ctx, transport), &choiceErr))
	require.Equal(t, before, m.Snapshot())
	require.Equal(t, 0, transport.Calls("/choice"))
}

func TestChoose(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := awaiting(t, transport)
	transport.On("/choice", testutil.HTML(testutil.ChoicePage))

	require.NoError(t, m.Choose(ctx, transport))
	s := m.Snapshot()
	require.True(t, s.Terminal)
	require.True(t, s.AwaitingResolution)
	require.Equal(t, OutcomeWin, s.Outcome)
	require.Equal(t, PhaseWon, s.Phase())
	require.Equal(t, FinishedProgress, s.Progress)
	require.Equal(t, 1.0, s.Confidence())
	require.Equal(t, MoodWin, s.Mood)
	require.Empty(t, s.Proposal.Id)
	require.Equal(t, "Mario", s.Proposal.Name)
	require.Equal(t, "Great, guessed right one more time.\nI've played 42 times", s.Prompt)

	// the game is over
	var choiceErr *gamedata.InvalidChoiceError
	require.True(t, errors.As(m.Choose(ctx, transport), &choiceErr))
	require.True(t, errors.As(m.Back(ctx, transport), &choiceErr))
	require.True(t, errors.As(m.Answer(ctx, transport, gamedata.AnswerIdk), &choiceErr))
	require.Equal(t, OutcomeWin, m.Snapshot().Outcome)
	require.Equal(t, 1, transport.Calls("/choice"))
}

func TestExcludeAfterWin(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := awaiting(t, transport)
	transport.On("/choice", testutil.HTML(testutil.ChoicePage))

	require.NoError(t, m.Choose(ctx, transport))
	require.Equal(t, OutcomeWin, m.Snapshot().Outcome)

	require.NoError(t, m.Exclude(ctx, transport))
	s := m.Snapshot()
	require.True(t, s.Terminal)
	require.False(t, s.AwaitingResolution)
	require.Nil(t, s.Proposal)
	require.Equal(t, OutcomeLoss, s.Outcome)
	require.Equal(t, DefeatMessage, s.Prompt)
	require.Equal(t, 0, transport.Calls("/exclude"))
}

func TestChooseWithoutSummary(t *testing.T) {
	transport := testutil.NewFakeTransport()
	tel := &testutil.RecordingAPI{}
	m := newMachine(tel)
	transport.On("/game", testutil.HTML(testutil.InitPage))
	transport.On("/answer", testutil.Proposal("12345", "Mario", "Italian plumber"))
	transport.On("/choice", testutil.HTML("<html><body>thanks</body></html>"))

	require.NoError(t, m.Start(ctx, transport, "en", false))
	require.NoError(t, m.Answer(ctx, transport, gamedata.AnswerYes))
	require.NoError(t, m.Choose(ctx, transport))

	s := m.Snapshot()
	require.Equal(t, OutcomeWin, s.Outcome)
	require.Equal(t, "Is it real?", s.Prompt)
	require.Len(t, tel.Find("warning", report_extract_win_summary), 1)
	require.Len(t, tel.Find("count", "games.finished.win"), 1)
}

func TestChooseHttpFailure(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := awaiting(t, transport)
	before := m.Snapshot()
	transport.On("/choice", testutil.Reply{Status: http.StatusBadGateway, Body: "bad gateway"})

	var transportErr *core.TransportError
	require.True(t, errors.As(m.Choose(ctx, transport), &transportErr))
	require.Equal(t, http.StatusBadGateway, transportErr.StatusCode)
	require.Equal(t, before, m.Snapshot())
}

func TestExcludeWithoutProposal(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := started(t, transport)

	var choiceErr *gamedata.InvalidChoiceError
	require.True(t, errors.As(m.Exclude(ctx, transport), &choiceErr))
	require.Equal(t, 0, transport.Calls("/exclude"))
}

func TestExcludeNoMoreCandidates(t *testing.T) {
	testCases := []struct {
		name  string
		reply testutil.Reply
	}{
		{name: "empty list", reply: testutil.JSON("[]")},
		{name: "empty body", reply: testutil.JSON("")},
		{name: "html", reply: testutil.HTML("<html><body>Error</body></html>")},
		{name: "server error", reply: testutil.Reply{Status: http.StatusInternalServerError, Body: "oops"}},
	}

	for _, test := range testCases {
		transport := testutil.NewFakeTransport()
		m := awaiting(t, transport)
		transport.On("/exclude", test.reply)

		require.NoError(t, m.Exclude(ctx, transport), test.name)
		s := m.Snapshot()
		require.True(t, s.Terminal, test.name)
		require.False(t, s.AwaitingResolution, test.name)
		require.Equal(t, OutcomeLoss, s.Outcome, test.name)
		require.Equal(t, DefeatMessage, s.Prompt, test.name)
		require.Equal(t, FinishedProgress, s.Progress, test.name)
		require.Nil(t, s.Proposal, test.name)
	}
}

func TestExcludeNetworkFailurePropagates(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := awaiting(t, transport)
	before := m.Snapshot()
	transport.On("/exclude", testutil.Failure(errors.New("connection refused")))

	var transportErr *core.TransportError
	require.True(t, errors.As(m.Exclude(ctx, transport), &transportErr))
	require.Equal(t, before, m.Snapshot())
}

// soundlikeWithGuess returns a machine that went back from the guess 12345
// and then got a soundlike reply, the guess is pending on a terminal
// session.
func soundlikeWithGuess(t *testing.T, transport *testutil.FakeTransport) *Machine {
	m := awaiting(t, transport)
	transport.On("/cancel_answer", testutil.Question(0, "0.00000", "Is it real?"))
	transport.On("/answer", testutil.JSON(`{"completion":"SOUNDLIKE"}`))

	require.NoError(t, m.Back(ctx, transport))
	require.NoError(t, m.Answer(ctx, transport, gamedata.AnswerProbably))

	s := m.Snapshot()
	require.True(t, s.Terminal)
	require.True(t, s.AwaitingResolution)
	require.Equal(t, OutcomeNone, s.Outcome)
	require.Equal(t, PhaseAwaitingResolution, s.Phase())
	require.Equal(t, "12345", s.Proposal.Id)
	return m
}

func TestBackKeepsGuess(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := awaiting(t, transport)
	transport.On("/cancel_answer", testutil.Question(0, "0.00000", "Is it real?"))

	require.NoError(t, m.Back(ctx, transport))
	s := m.Snapshot()
	require.False(t, s.AwaitingResolution)
	require.Equal(t, PhaseQuestioning, s.Phase())
	require.Equal(t, "Is it real?", s.String())
	require.Equal(t, "Mario", s.Proposal.Name)

	// the guess is no longer up for resolution
	var choiceErr *gamedata.InvalidChoiceError
	require.True(t, errors.As(m.Choose(ctx, transport), &choiceErr))
	require.True(t, errors.As(m.Exclude(ctx, transport), &choiceErr))
	require.Equal(t, 0, transport.Calls("/choice"))
}

func TestExcludeWhenTerminal(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := soundlikeWithGuess(t, transport)

	require.NoError(t, m.Exclude(ctx, transport))
	s := m.Snapshot()
	require.True(t, s.Terminal)
	require.False(t, s.AwaitingResolution)
	require.Nil(t, s.Proposal)
	require.Equal(t, OutcomeLoss, s.Outcome)
	require.Equal(t, MoodDefeat, s.Mood)
	require.Equal(t, DefeatMessage, s.Prompt)
	require.Equal(t, FinishedProgress, s.Progress)
	require.Equal(t, 0, transport.Calls("/exclude"))
}

func TestChooseAfterSoundlike(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := soundlikeWithGuess(t, transport)
	transport.On("/choice", testutil.HTML(testutil.ChoicePage))

	require.NoError(t, m.Choose(ctx, transport))
	s := m.Snapshot()
	require.Equal(t, OutcomeWin, s.Outcome)
	require.True(t, s.Terminal)
	require.True(t, s.AwaitingResolution)
	require.Empty(t, s.Proposal.Id)
	require.Equal(t, "Mario", s.Proposal.Name)

	req, _ := transport.Last("/choice")
	require.Equal(t, "12345", req.Form["pid"])
}

func TestSoundlikeAfterBackWithoutGuess(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := started(t, transport)
	transport.On("/answer", testutil.Question(1, "10.00000", "Is it an animal?"))
	transport.On("/cancel_answer", testutil.JSON(`{"completion":"SOUNDLIKE"}`))

	require.NoError(t, m.Answer(ctx, transport, gamedata.AnswerNo))
	require.NoError(t, m.Back(ctx, transport))
	s := m.Snapshot()
	require.Equal(t, OutcomeLoss, s.Outcome)
	require.Equal(t, DefeatMessage, s.Prompt)
}

func TestResolveDefeat(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := awaiting(t, transport)
	requests := len(transport.Requests())

	m.ResolveDefeat()
	s := m.Snapshot()
	require.True(t, s.Terminal)
	require.False(t, s.AwaitingResolution)
	require.Nil(t, s.Proposal)
	require.Equal(t, DefeatMessage, s.Prompt)
	require.Equal(t, FinishedProgress, s.Progress)
	require.Len(t, transport.Requests(), requests)
}

func TestSnapshotIsACopy(t *testing.T) {
	transport := testutil.NewFakeTransport()
	m := awaiting(t, transport)

	s := m.Snapshot()
	s.Proposal.Name = "Luigi"
	require.Equal(t, "Mario", m.Snapshot().Proposal.Name)
}

func TestConfidence(t *testing.T) {
	for progress, expected := range map[string]float64{
		"0.00000":   0.0,
		"50.00000":  0.5,
		"100.00000": 1.0,
		"":          0.0,
	} {
		require.Equal(t, expected, Snapshot{Progress: progress}.Confidence(), progress)
	}
}
