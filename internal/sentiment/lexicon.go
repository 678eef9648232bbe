package sentiment

// afinn is a subset of the AFINN-111 word list, focused on vocabulary that
// shows up in pull request titles and descriptions.
var afinn = map[string]int{
	// positive
	"amazing":     4,
	"awesome":     4,
	"beautiful":   3,
	"best":        3,
	"better":      2,
	"brilliant":   4,
	"clean":       2,
	"clear":       1,
	"cool":        1,
	"easy":        1,
	"effective":   2,
	"efficient":   2,
	"elegant":     2,
	"enjoy":       2,
	"excellent":   3,
	"excited":     3,
	"fantastic":   4,
	"fast":        1,
	"fine":        2,
	"fixed":       2,
	"free":        1,
	"fun":         4,
	"funny":       4,
	"glad":        3,
	"good":        3,
	"great":       3,
	"happy":       3,
	"help":        2,
	"helpful":     2,
	"helps":       2,
	"hope":        2,
	"impressive":  3,
	"improve":     2,
	"improved":    2,
	"improvement": 2,
	"improves":    2,
	"interesting": 2,
	"like":        2,
	"love":        3,
	"lovely":      3,
	"neat":        2,
	"nice":        3,
	"perfect":     3,
	"please":      1,
	"powerful":    2,
	"pretty":      1,
	"proud":       2,
	"robust":      2,
	"safe":        1,
	"simple":      1,
	"smart":       1,
	"solid":       2,
	"stable":      2,
	"success":     2,
	"successful":  3,
	"super":       3,
	"support":     2,
	"thank":       2,
	"thanks":      2,
	"useful":      2,
	"welcome":     2,
	"win":         4,
	"wonderful":   4,
	"wow":         4,
	"yay":         2,
	"yes":         1,

	// negative
	"abuse":        -3,
	"angry":        -3,
	"annoying":     -2,
	"awful":        -3,
	"bad":          -3,
	"boring":       -3,
	"broken":       -1,
	"crap":         -3,
	"damage":       -3,
	"dead":         -3,
	"delay":        -1,
	"destroy":      -3,
	"destroyed":    -3,
	"difficult":    -1,
	"dirty":        -2,
	"disaster":     -2,
	"dumb":         -3,
	"error":        -2,
	"errors":       -2,
	"evil":         -3,
	"fail":         -2,
	"failed":       -2,
	"fails":        -2,
	"failure":      -2,
	"fake":         -3,
	"fault":        -2,
	"hack":         -1,
	"hate":         -3,
	"horrible":     -3,
	"hurt":         -2,
	"idiot":        -3,
	"ignore":       -1,
	"kill":         -3,
	"lame":         -2,
	"lose":         -3,
	"mess":         -2,
	"messy":        -2,
	"missing":      -2,
	"no":           -1,
	"pointless":    -2,
	"poor":         -2,
	"problem":      -2,
	"problems":     -2,
	"regret":       -2,
	"ruin":         -2,
	"sad":          -2,
	"scary":        -2,
	"slow":         -2,
	"spam":         -2,
	"stupid":       -2,
	"suck":         -3,
	"sucks":        -3,
	"terrible":     -3,
	"troll":        -2,
	"ugly":         -3,
	"unfortunate":  -2,
	"unstable":     -2,
	"useless":      -2,
	"vandalism":    -3,
	"worse":        -3,
	"worst":        -3,
	"worthless":    -2,
	"wrong":        -2,
}
