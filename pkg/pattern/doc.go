/*
Package pattern compiles search patterns into Matchers that can tell a
confirmed match apart from text that might still grow into one.

	          +--------------------+
	          |      Matcher       |
	          | Scan(buf,before,   |
	          |      final)        |
	          +---------+----------+
	                    |
	      +-------------+-------------+
	      |                           |
	+-----+------+            +-------+-------+
	|  Literal   |            |     Regex     |
	| KMP over   |            | coregex (RE2) |
	| folded     |            | regexp2 (ES)  |
	| runes      |            | + bounded     |
	+------------+            |   speculation |
	                          +---------------+

🎯 Purpose:
- Find every non-overlapping match in a buffer, left to right
- Report where a candidate partial begins at the end of the buffer
- Keep the amount of held text as small as possible

🔄 Flow:
 1. Literal patterns fold case (unless case-sensitive) and build a KMP table
 2. Regex patterns are parsed with regexp/syntax to bound their match length
    and to build an NFA used for prefix viability
 3. Scan returns confirmed matches plus the hold offset

⚡ Literal partials:
The KMP state after the final rune is the length of the longest pattern prefix
that is also a suffix of the buffer. That suffix is the candidate partial; it
is never a full match, so a full match at the same position always wins.

⚡ Regex partials:
Whether a regular expression will match once more input arrives is not
decidable from a prefix in general. Matches are therefore assumed to be at most
N bytes long, where N is the smaller of WithMaxMatchLength and the analysed
upper bound of the expression. A match is confirmed once at least N bytes
follow its start; from the last confirmed match onwards, the earliest position
whose anchored NFA is still alive at the end of the buffer starts the hold.

⚡ Left context:
Scan is told the rune that came before the buffer in the stream, or
StreamStart. ^ without the m flag only matches at the start of the stream,
and ^ with m and \b look at that rune. The regex engines see it as one rune
of text in front of the buffer that no match may start on.

🔍 Example:

	m, err := pattern.Literal("</head>")
	if err != nil {
		return err
	}
	res, err := m.Scan("<head></he", pattern.StreamStart, false)
	// res.Matches is empty, res.Hold == 6 ("</he" is held)
*/
package pattern
