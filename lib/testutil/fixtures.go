package testutil

import "fmt"

// InitPage is a game page carrying the tokens ("s1", "sig1", "id1") and the
// question "Is it real?".
const InitPage = `<html><head></head><body><script>
$('#session').val('s1');
$('#signature').val('sig1');
$('#identifiant').val('id1');
</script>
<div class="bubble-body"><p class="question-text" id="question-label">Is it real?</p></div>
<div class="sub-bubble-propose"><p id="p-sub-bubble">I think of</p></div>
</body></html>`

// ChoicePage is the page returned once a guess is confirmed.
const ChoicePage = `<html><body>
<span class="win-sentence">Great, guessed right one more time.</span>
<script>
let tokenDejaJoue = "I've played";
let timesSelected = "42";
</script>
<span><span id="timesselected"></span> times</span>
</body></html>`

// Question is a step reply moving to another question.
func Question(step int, progress, question string) Reply {
	return JSON(fmt.Sprintf(
		`{"completion":"OK","akitude":"serein.png","step":"%d","progression":"%s","question":%q}`,
		step, progress, question,
	))
}

// Proposal is a step reply carrying a guess.
func Proposal(id, name, description string) Reply {
	return JSON(fmt.Sprintf(
		`{"completion":"OK","id_proposition":%q,"name_proposition":%q,"description_proposition":%q,"pseudo":"","photo":"https://photos.example.com/%s.jpg","flag_photo":"0"}`,
		id, name, description, id,
	))
}
