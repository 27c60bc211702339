/*
Package iso7816 implements the APDU wire model of ISO/IEC 7816-4 as seen from
the point of view of a passive observer: raw bytes captured on the wire are
parsed into structured Command and Response objects, never the other way round.

# Fundamentals

The communication with a smart card is strictly synchronous:
 1. The terminal sends a Command APDU (Header + Optional Body).
 2. The Card processes it and returns a Response APDU (Optional Body + Trailer SW1/SW2).

A capture therefore consists of Command/Response pairs, and decoding one pair
requires classifying the command by its CLA (class) and INS (instruction)
header bytes.

# Class Byte and Logical Channels

The CLA byte carries, besides the command class, the logical channel the
command executes on. A card may keep several files selected at once, one per
channel, so a trace decoder must recover the channel number from every CLA
byte to attribute the command to the right selection cursor. The Class type
performs this decoding for both the first (channels 0-3) and further
(channels 4-19) interindustry encodings.

# Status Words

Every response ends with a 2-byte Status Word (SW).
  - 0x9000: Success (OK).
  - 0x61XX: Success, but response data is still available (XX bytes).
  - 0x6CXX: Error, wrong length expectation (XX is the correct length).
  - Other: Various error conditions.

# File Control Parameters

The response to a successful SELECT carries a File Control Parameters (FCP)
template describing the selected file (identifier, descriptor, size, AID).
ParseFCP maps that BER-TLV structure into a Go struct so higher layers can
report what was selected without re-parsing TLV by hand.
*/
package iso7816
