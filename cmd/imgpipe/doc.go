// Command imgpipe decodes image files through the imgpipe pipeline and
// reports what came out.
//
//	imgpipe decode photo.webp            # summary table
//	imgpipe decode --json anim.gif       # machine readable summary
//	imgpipe decode --dump out/ icon.svg  # write every frame as PNG
//	imgpipe sniff a.png b.psd            # guessed formats only
//	imgpipe config sample                # commented default configuration
package main
