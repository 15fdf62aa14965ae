// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"fmt"
)

// bashCompletionTemplate is the bash completion script for scopeq.
const bashCompletionTemplate = `#!/bin/bash

# Bash completion script for scopeq
# Installation:
#   source <(scopeq completion bash)
#   Or add to ~/.bashrc:
#   echo 'source <(scopeq completion bash)' >> ~/.bashrc

_scopeq_completion() {
    local cur prev commands globals
    commands="keywords props index shell config completion version"
    globals="--config --index --host --timeout --metrics-file --verbose --no-color"

    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    case "${prev}" in
        --lib|--index|--out|--config|--metrics-file)
            COMPREPLY=( $(compgen -f -- ${cur}) )
            return 0
            ;;
        --format)
            COMPREPLY=( $(compgen -W "csv json paths" -- ${cur}) )
            return 0
            ;;
        --mode)
            COMPREPLY=( $(compgen -W "best-effort strict read-write temporary" -- ${cur}) )
            return 0
            ;;
    esac

    if [ $COMP_CWORD -eq 1 ] && [[ ${cur} != -* ]]; then
        COMPREPLY=( $(compgen -W "${commands}" -- ${cur}) )
        return 0
    fi

    local cmd="${COMP_WORDS[1]}"
    case "${cmd}" in
        keywords|shell)
            COMPREPLY=( $(compgen -W "--lib --json ${globals}" -- ${cur}) )
            ;;
        props)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--mode --set --json ${globals}" -- ${cur}) )
            else
                COMPREPLY=( $(compgen -f -- ${cur}) )
            fi
            ;;
        index)
            if [[ ${cur} == -* ]] ; then
                COMPREPLY=( $(compgen -W "--json --exclude --max-size ${globals}" -- ${cur}) )
            else
                COMPREPLY=( $(compgen -d -W "rm stat" -- ${cur}) )
            fi
            ;;
        config)
            COMPREPLY=( $(compgen -W "--save ${globals}" -- ${cur}) )
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- ${cur}) )
            ;;
        *)
            COMPREPLY=( $(compgen -W "--lib --search --query --silent --format --out --version ${globals}" -- ${cur}) )
            ;;
    esac
}

complete -F _scopeq_completion scopeq
`

// zshCompletionTemplate is the zsh completion script for scopeq.
const zshCompletionTemplate = `#compdef scopeq

# Zsh completion script for scopeq
# Installation:
#   scopeq completion zsh > "${fpath[1]}/_scopeq"
#   rm -f ~/.zcompdump; compinit

_scopeq() {
    local -a commands globals
    commands=(
        'keywords:List distinct keywords under a library root'
        'props:Show or set file properties'
        'index:Crawl a directory into the index'
        'shell:Interactive query shell'
        'config:Show or save the configuration'
        'completion:Generate shell completion script'
        'version:Show version information'
    )
    globals=(
        '--config[Config file]:config file:_files -g "*.yaml"'
        '--index[Index file]:index file:_files'
        '*--host[UNC host served by the local index]:host:'
        '--timeout[Statement timeout]:duration:'
        '--metrics-file[Write Prometheus metrics on exit]:file:_files'
        '(-v --verbose)'{-v,--verbose}'[Debug logging and full error details]'
        '--no-color[Disable colored output]'
    )

    _arguments -C \
        '--lib[Library root]:root:_files -/' \
        '--search[Keyword query]:keywords:' \
        '--query[SQL query]:sql:' \
        '--silent[Count rows without printing them]' \
        '--format[Result format]:format:(csv json paths)' \
        '--out[Write results to file]:file:_files' \
        '(- *)--version[Show version and exit]' \
        $globals \
        '1: :->command' \
        '*:: :->args'

    case $state in
        command)
            _describe 'command' commands
            ;;
        args)
            case $words[1] in
                keywords|shell)
                    _arguments '--lib[Library root]:root:_files -/' '--json[Output as JSON]' $globals
                    ;;
                props)
                    _arguments \
                        '--mode[Open mode]:mode:(best-effort strict read-write temporary)' \
                        '*--set[Set a property]:Name=Value:' \
                        '--json[Output as JSON]' \
                        $globals \
                        '1:file:_files'
                    ;;
                index)
                    _arguments '--json[Output as JSON]' '*--exclude[Skip matching paths]:glob:' '--max-size[Largest file in bytes]:bytes:' $globals '1:directory:_files -/' '2:path:_files'
                    ;;
                config)
                    _arguments '--save[Write the configuration]::file:_files' $globals
                    ;;
                completion)
                    _arguments '1:shell:(bash zsh fish)'
                    ;;
            esac
            ;;
    esac
}

_scopeq
`

// fishCompletionTemplate is the fish completion script for scopeq.
const fishCompletionTemplate = `# Fish completion script for scopeq
# Installation:
#   scopeq completion fish > ~/.config/fish/completions/scopeq.fish

# Commands
complete -c scopeq -f -n "__fish_use_subcommand" -a "keywords" -d "List distinct keywords under a library root"
complete -c scopeq -f -n "__fish_use_subcommand" -a "props" -d "Show or set file properties"
complete -c scopeq -f -n "__fish_use_subcommand" -a "index" -d "Crawl a directory into the index"
complete -c scopeq -f -n "__fish_use_subcommand" -a "shell" -d "Interactive query shell"
complete -c scopeq -f -n "__fish_use_subcommand" -a "config" -d "Show or save the configuration"
complete -c scopeq -f -n "__fish_use_subcommand" -a "completion" -d "Generate shell completion script"
complete -c scopeq -f -n "__fish_use_subcommand" -a "version" -d "Show version information"

# Query flags
complete -c scopeq -l lib -d "Library root" -r -a "(__fish_complete_directories)"
complete -c scopeq -l search -d "Keyword query" -r
complete -c scopeq -l query -d "SQL query" -r
complete -c scopeq -l silent -d "Count rows without printing them"
complete -c scopeq -l format -d "Result format" -r -f -a "csv json paths"
complete -c scopeq -l out -d "Write results to file" -r

# Global flags
complete -c scopeq -l config -d "Config file" -r
complete -c scopeq -l index -d "Index file" -r
complete -c scopeq -l host -d "UNC host served by the local index" -r
complete -c scopeq -l timeout -d "Statement timeout" -r
complete -c scopeq -l metrics-file -d "Write Prometheus metrics on exit" -r
complete -c scopeq -s v -l verbose -d "Debug logging and full error details"
complete -c scopeq -l no-color -d "Disable colored output"

# props command flags
complete -c scopeq -n "__fish_seen_subcommand_from props" -l mode -d "Open mode" -r -f -a "best-effort strict read-write temporary"
complete -c scopeq -n "__fish_seen_subcommand_from props" -l set -d "Set a property, Name=Value" -r

# index command arguments
complete -c scopeq -n "__fish_seen_subcommand_from index" -f -a "rm stat"
complete -c scopeq -n "__fish_seen_subcommand_from index" -l exclude -d "Skip paths matching a glob" -r
complete -c scopeq -n "__fish_seen_subcommand_from index" -l max-size -d "Largest file in bytes" -r

# json output
complete -c scopeq -n "__fish_seen_subcommand_from keywords props index version" -l json -d "Output as JSON"

# config command flags
complete -c scopeq -n "__fish_seen_subcommand_from config" -l save -d "Write the configuration"

# completion command arguments
complete -c scopeq -n "__fish_seen_subcommand_from completion" -f -a "bash zsh fish"
`

const completionUsage = `Usage: scopeq completion <bash|zsh|fish>

Generates a shell completion script.

Examples:
  source <(scopeq completion bash)
  scopeq completion zsh > "${fpath[1]}/_scopeq"
  scopeq completion fish > ~/.config/fish/completions/scopeq.fish
`

// runCompletion executes the 'completion' command.
func runCompletion(_ context.Context, c *cli, args []string) error {
	fs := c.flagSet("completion", completionUsage)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return usagef("completion takes one shell: bash, zsh or fish")
	}

	var script string
	switch fs.Arg(0) {
	case "bash":
		script = bashCompletionTemplate
	case "zsh":
		script = zshCompletionTemplate
	case "fish":
		script = fishCompletionTemplate
	default:
		return usagef("unsupported shell %q (want bash, zsh or fish)", fs.Arg(0))
	}
	_, err := fmt.Fprint(c.stdout, script)
	return err
}
