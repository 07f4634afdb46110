// Package config provides configuration management for nwconf.
//
// The package uses a Provider interface to abstract configuration loading, with the
// primary implementation being filesystem-based configuration via a YAML file.
// Every key is optional; a missing file yields the defaults.
//
// # Configuration Structure
//
//	game:
//	  config_dir: ""                 # explicit game configuration directory
//	  env_var: LOCALAPPDATA          # app data root, used when config_dir is empty
//	  relative_path: AGS/New World   # game folder below the app data root
//	  process_name: NewWorld         # executable prefix of the game client
//	backup:
//	  copy_workers: 4                # concurrent file copies during backup/restore
//	log:
//	  level: info                    # debug | info | warn | error
//	  file: ~/.nwconf/nwconf.log     # diagnostic log
//
// # Basic Usage
//
//	cfg, err := config.New("").Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Validation
//
//   - Either game.config_dir or game.env_var must be set
//   - game.config_dir, when set, must be absolute
//   - backup.copy_workers must be between 1 and 32
//   - log.level must be a known level
//
// # Error Handling
//
//   - ErrInvalidConfig: Configuration validation failed
//   - ErrNoConfig: Configuration file not found (Load returns defaults)
package config
