/*
BCH protects byte streams with binary BCH codes, correcting up to t flipped bits per frame.

The input is cut into blocks of BlockSize bytes. Each block is followed by a
CRC-16/CCITT of the block and the BCH ecc of both:

	[data BlockSize][crc 2][ecc EccBytes]

The last frame is a trailer whose block holds the number of padding bytes
appended to the final data block. Decoding corrects every frame it can,
strips the padding and reports frames that needed correction or could not be
recovered.

Command-line Flags:

	-M, --mode="encode"

Selects the operation: encode, decode or profiles. The profiles mode lists
every registered profile with its derived ecc size.

	-p, --profile="nand512-t8"

Selects the code. Built-in profiles:

	pocsag      m=5  t=2  (not frameable)
	hamming31   m=5  t=1  (not frameable)
	nand512-t4  m=13 t=4  blocksize=512
	nand512-t8  m=13 t=8  blocksize=512
	nand1k-t24  m=14 t=24 blocksize=1024
	onfi-t40    m=15 t=40 blocksize=1024

	-m, --order=0
	-t, --capability=0
	--poly=0

Override the field order, the correction capability and the primitive
polynomial of the profile. Any of them yields a profile named custom whose
block size is the largest the code can frame. Changing the order resets the
polynomial to the default for that order.

	-b, --blocksize=0

Sets data bytes per frame, 0 for the profile's value. The block and its
checksum must fit in (2^m - 1 - EccBits) / 8 bytes.

	-i, --in="-"
	-o, --out="-"

Input and output files, - for stdin and stdout.

	-r, --report=""

Sets the file decode writes frame reports to, empty for stderr. Only
corrected and failed frames are reported.

	-f, --format="plain"

Sets the report format: plain, csv, json or xml. Plain text uses:

	{Frame:%d Status:%s Errors:%d Positions:%v}

For json and xml output each line is an element, there is no root node.

	--profiles=""

Loads additional profiles from a YAML file before running:

	profiles:
	  - name: nand2k-t12
	    m: 14
	    t: 12
	    blocksize: 512

	--chien=false

Finds error locations by exhaustive Chien search instead of polynomial
factoring. Slower, useful for cross-checking.

	-l, --loglevel="info"

Sets the log level. At debug every decode logs its syndromes, error locator
and roots.

	-V, --version=false

Prints the build tag, date and commit hash.

Every flag may also be set from the environment as BCH_<FLAG>, for example
BCH_PROFILE=onfi-t40. Flags given on the command line take precedence.

Decoding exits non-zero if any frame could not be recovered.
*/
package main
