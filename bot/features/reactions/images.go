package reactions

// images maps emoji names to the link posted in reply
var images = map[string]string{
	"💩":           "https://tenor.com/view/elmo-poop-gif-18814641",
	"👍":           "https://tenor.com/view/boy-kid-computer-thumbs-up-face-gif-9548945",
	"sip":         "https://tenor.com/view/espresso-classy-pinkies-up-sips-tea-sipping-gif-7250101",
	"beans":       "https://tenor.com/view/dance-bean-dancing-cute-funny-gif-21992996",
	"hmm":         "https://tenor.com/view/hmm-dot-dot-dot-stick-figure-intresting-gif-23376515",
	"surprisePog": "https://tenor.com/view/pog-frog-frog-pog-frog-dance-gif-20735320",
	"sus":         "https://tenor.com/view/hmm-suspect-gif-22611582",
}

// ImageFor returns the reply link for an emoji name
func ImageFor(emojiName string) (string, bool) {
	link, ok := images[emojiName]
	return link, ok
}
