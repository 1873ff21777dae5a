package cpu

// Memory space layout.
const (
	MEMSPACE_TRAP_TABLE = uint16(0x0000) // Trap vector table.
	MEMSPACE_INT_TABLE  = uint16(0x0100) // Interrupt vector table.
	MEMSPACE_SUPERVISOR = uint16(0x0200) // Operating system and supervisor stack.
	MEMSPACE_USER       = uint16(0x3000) // User programs.
	MEMSPACE_DEVICES    = uint16(0xFE00) // Device registers (not modeled).
)

// Reset state.
const (
	RESET_PC  = MEMSPACE_SUPERVISOR // Program counter after reset.
	RESET_SSP = MEMSPACE_USER       // Supervisor stack pointer (R6) after reset.
	RESET_USP = MEMSPACE_DEVICES    // Saved user stack pointer after reset.
	HALT_PC   = uint16(0xFFFE)      // Parking address of a halted program.
)

// Trap vectors.
const (
	TRAP_GETC  = uint8(0x20) // Read a character into R0.
	TRAP_OUT   = uint8(0x21) // Write the character in R0.
	TRAP_PUTS  = uint8(0x22) // Write the word-per-character string at R0.
	TRAP_IN    = uint8(0x23) // Prompt, then read and echo a character.
	TRAP_PUTSP = uint8(0x24) // Write the byte-packed string at R0.
	TRAP_HALT  = uint8(0x25) // Stop the machine.
)
